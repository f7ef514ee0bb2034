package view

import (
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// ThemeConfig resolves manifest plus the named variant into the renderer
// configuration layouts consume. Variant tokens, templates and asset files
// override the base manifest; an unknown variant resolves to the base.
func ThemeConfig(manifest *theme.Manifest, variant string) *theme.RendererConfig {
	if manifest == nil {
		return nil
	}

	tokens := copyStringMap(manifest.Tokens)
	partials := copyStringMap(manifest.Templates)
	prefix := manifest.Assets.Prefix
	files := copyStringMap(manifest.Assets.Files)

	variant = strings.TrimSpace(variant)
	if v, ok := manifest.Variants[variant]; ok && variant != "" {
		tokens = mergeStringMap(tokens, v.Tokens)
		partials = mergeStringMap(partials, v.Templates)
		files = mergeStringMap(files, v.Assets.Files)
		if v.Assets.Prefix != "" {
			prefix = v.Assets.Prefix
		}
	} else {
		variant = ""
	}

	return &theme.RendererConfig{
		Theme:    manifest.Name,
		Variant:  variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  cssVarsFromTokens(tokens),
		AssetURL: assetResolver(prefix, files),
	}
}

func assetResolver(prefix string, files map[string]string) func(string) string {
	return func(key string) string {
		file := strings.TrimSpace(files[key])
		if file == "" {
			return ""
		}
		if isAbsoluteURL(file) || prefix == "" {
			return file
		}
		return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(file, "/")
	}
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "//")
}

func cssVarsFromTokens(tokens map[string]string) map[string]string {
	if len(tokens) == 0 {
		return nil
	}
	out := make(map[string]string, len(tokens))
	for key, value := range tokens {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out["--"+strings.TrimPrefix(key, "--")] = value
	}
	return out
}

// themeContext flattens a renderer config into plain values for templates.
func themeContext(cfg *theme.RendererConfig) map[string]any {
	if cfg == nil {
		return map[string]any{}
	}
	return map[string]any{
		"name":    cfg.Theme,
		"variant": cfg.Variant,
		"tokens":  copyStringMap(cfg.Tokens),
		"css":     cssVarsStyle(cfg.CSSVars),
	}
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range keys {
		b.WriteString("  ")
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

func copyStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func mergeStringMap(base, override map[string]string) map[string]string {
	if len(override) == 0 {
		return base
	}
	out := copyStringMap(base)
	if out == nil {
		out = make(map[string]string, len(override))
	}
	for key, value := range override {
		out[key] = value
	}
	return out
}
