// Package completion prints shell completion scripts for the rift command.
package completion

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnsupportedShell is returned for shells without a generator.
var ErrUnsupportedShell = errors.New("unsupported shell")

// Shells lists the supported shell names.
var Shells = []string{"bash", "zsh", "fish"}

type flag struct {
	name string
	help string
}

type command struct {
	name  string
	help  string
	flags []flag
}

var globalFlags = []flag{
	{"--config", "path to a YAML config file"},
	{"--out", "asset root directory"},
	{"--log-level", "debug, info, warn or error"},
	{"--help", "show help"},
}

var commands = []command{
	{"list", "list discovered events", []flag{
		{"--all", "include info and patch-note entries"},
		{"--json", "print resolved records as JSON"},
	}},
	{"grab", "download assets for one or more events", []flag{
		{"--link", "1-based main link to use"},
	}},
	{"manifests", "download Riot Client theme manifest assets", []flag{
		{"--force", "ignore the once-per-month guard"},
	}},
	{"completion", "print a shell completion script", nil},
}

// Write prints the completion script for shell to w.
func Write(w io.Writer, shell string) error {
	switch strings.ToLower(shell) {
	case "bash":
		return writeBash(w)
	case "zsh":
		return writeZsh(w)
	case "fish":
		return writeFish(w)
	default:
		return fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedShell, shell, strings.Join(Shells, ", "))
	}
}

func names(flags []flag) string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = f.name
	}
	return strings.Join(out, " ")
}

func writeBash(w io.Writer) error {
	var b strings.Builder
	b.WriteString("# rift bash completion\n# Installation: rift completion bash > ~/.local/share/bash-completion/completions/rift\n\n")
	b.WriteString("_rift() {\n    local cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    local sub=\"\"\n    local i\n")
	b.WriteString("    for ((i = 1; i < COMP_CWORD; i++)); do\n")
	b.WriteString("        case \"${COMP_WORDS[i]}\" in -*) ;; *) sub=\"${COMP_WORDS[i]}\"; break ;; esac\n    done\n\n")
	b.WriteString("    case \"$sub\" in\n")
	for _, c := range commands {
		words := names(c.flags)
		if c.name == "completion" {
			words = strings.Join(Shells, " ")
		}
		fmt.Fprintf(&b, "        %s) COMPREPLY=($(compgen -W %q -- \"$cur\")) ;;\n", c.name, words)
	}
	all := make([]string, len(commands))
	for i, c := range commands {
		all[i] = c.name
	}
	fmt.Fprintf(&b, "        *) COMPREPLY=($(compgen -W %q -- \"$cur\")) ;;\n", strings.Join(all, " ")+" "+names(globalFlags))
	b.WriteString("    esac\n}\n\ncomplete -F _rift rift\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func writeZsh(w io.Writer) error {
	var b strings.Builder
	b.WriteString("#compdef rift\n# rift zsh completion\n# Installation: rift completion zsh > ~/.zsh/completion/_rift\n\n")
	b.WriteString("_rift() {\n    local -a commands\n    commands=(\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.name, c.help)
	}
	b.WriteString("    )\n\n    _arguments -C \\\n")
	for _, f := range globalFlags {
		fmt.Fprintf(&b, "        '%s[%s]' \\\n", f.name, f.help)
	}
	b.WriteString("        '1: :->cmds' \\\n        '*:: :->args'\n\n")
	b.WriteString("    case $state in\n        cmds) _describe -t commands 'rift commands' commands ;;\n")
	b.WriteString("        args)\n            case $words[1] in\n")
	for _, c := range commands {
		var specs []string
		for _, f := range c.flags {
			specs = append(specs, fmt.Sprintf("'%s[%s]'", f.name, f.help))
		}
		if c.name == "completion" {
			specs = append(specs, "'1:shell:("+strings.Join(Shells, " ")+")'")
		}
		if len(specs) > 0 {
			fmt.Fprintf(&b, "                %s) _arguments %s ;;\n", c.name, strings.Join(specs, " "))
		}
	}
	b.WriteString("            esac\n            ;;\n    esac\n}\n\n_rift \"$@\"\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func writeFish(w io.Writer) error {
	var b strings.Builder
	b.WriteString("# rift fish completion\n# Installation: rift completion fish > ~/.config/fish/completions/rift.fish\n\n")
	b.WriteString("complete -c rift -f\n")
	for _, f := range globalFlags {
		fmt.Fprintf(&b, "complete -c rift -l %s -d %q\n", strings.TrimPrefix(f.name, "--"), f.help)
	}
	for _, c := range commands {
		fmt.Fprintf(&b, "complete -c rift -n __fish_use_subcommand -a %s -d %q\n", c.name, c.help)
		for _, f := range c.flags {
			fmt.Fprintf(&b, "complete -c rift -n \"__fish_seen_subcommand_from %s\" -l %s -d %q\n",
				c.name, strings.TrimPrefix(f.name, "--"), f.help)
		}
	}
	fmt.Fprintf(&b, "complete -c rift -n \"__fish_seen_subcommand_from completion\" -a %q\n", strings.Join(Shells, " "))
	_, err := io.WriteString(w, b.String())
	return err
}
