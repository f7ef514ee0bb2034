package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/goliatone/go-hyperdemo/components/greeting"
	"github.com/goliatone/go-hyperdemo/internal/server"
)

// errAborted is returned when the user interrupts the name prompt.
var errAborted = errors.New("hyperdemo: aborted")

// namePrompt asks for a name, offering def as the default answer.
type namePrompt func(ctx context.Context, def string) (string, error)

func surveyNamePrompt(ctx context.Context, def string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var name string
	prompt := &survey.Input{
		Message: "Who should we greet?",
		Default: def,
	}
	if err := survey.AskOne(prompt, &name); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return "", errAborted
		}
		return "", err
	}
	return name, nil
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func newRenderCmd(c *cli) *cobra.Command {
	var (
		name     string
		enhanced bool
		id       string
	)

	cmd := &cobra.Command{
		Use:       "render <home|greet|fragment>",
		Short:     "Render a page or fragment to stdout",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"home", "greet", "fragment"},
		Example: `  hyperdemo render home
  hyperdemo render greet --name Dave
  hyperdemo render greet --name Dave --enhanced
  hyperdemo render fragment --id logo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			stack, err := server.Build(c.cfg, c.logger)
			if err != nil {
				return err
			}
			greeter := stack.Component.Greeter()
			ctx := cmd.Context()

			var result greeting.Result
			switch strings.ToLower(args[0]) {
			case "home":
				result = greeter.RenderHome()
			case "greet":
				if !cmd.Flags().Changed("name") {
					if c.prompt == nil || c.isTerminal == nil || !c.isTerminal() {
						result = greeter.RenderGreetForm()
						break
					}
					if name, err = c.prompt(ctx, stack.Component.Options().DefaultName); err != nil {
						return err
					}
				}
				result = greeter.SubmitGreeting(name, enhanced)
			case "fragment":
				result, err = greeter.RenderLazyFragment(id)
				if err != nil {
					return fmt.Errorf("%w (known: %s)", err, strings.Join(greeter.LazyFragmentIDs(), ", "))
				}
			default:
				return fmt.Errorf("unknown target %q, expected home, greet or fragment", args[0])
			}

			if err := stack.Renderer.Render(ctx, result.Target, result.Context, cmd.OutOrStdout()); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout())
			return err
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "name to greet; prompts when omitted on a terminal")
	cmd.Flags().BoolVarP(&enhanced, "enhanced", "e", false, "render the fragment an enhanced client would receive")
	cmd.Flags().StringVar(&id, "id", greeting.FragmentLogo, "lazy fragment id for the fragment target")
	return cmd
}
