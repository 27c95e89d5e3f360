package manifest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Package managers whose "<manager> install ..." commands are folded into
// the install step when parsing a Dockerfile.
var installManagers = map[string]bool{
	"pip":  true,
	"pip3": true,
	"npm":  true,
	"gem":  true,
}

// Parses a Dockerfile into an image specification.
//
// The supported instruction subset is FROM, WORKDIR, COPY, ENV, RUN, CMD,
// and ENTRYPOINT. Comments, blank lines, and backslash line continuations
// are handled. RUN commands of the form "<manager> install pkgs..." become
// the install step; any other RUN command is kept verbatim as a build
// command. Instructions outside the subset are an error.
func ParseDockerfile(r io.Reader) (*Image, error) {
	img := &Image{}

	lines, err := logicalLines(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	for _, ln := range lines {
		if err := img.applyInstruction(ln.text); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrSyntax, ln.number, err)
		}
	}

	if img.From == "" {
		return nil, fmt.Errorf("%w: missing FROM instruction", ErrSyntax)
	}

	img.applyDefaults()
	return img, nil
}

// A logical Dockerfile line after joining continuations, with the number of
// the physical line it started on.
type logicalLine struct {
	text   string
	number int
}

// Reads physical lines, strips comments and blanks, and joins backslash
// continuations into logical lines.
func logicalLines(r io.Reader) ([]logicalLine, error) {
	var (
		lines   []logicalLine
		pending strings.Builder
		start   int
	)

	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if pending.Len() == 0 {
			start = n
		}

		if cont, ok := strings.CutSuffix(line, "\\"); ok {
			pending.WriteString(strings.TrimSpace(cont))
			pending.WriteString(" ")
			continue
		}

		pending.WriteString(line)
		lines = append(lines, logicalLine{text: pending.String(), number: start})
		pending.Reset()
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if pending.Len() > 0 {
		lines = append(lines, logicalLine{text: strings.TrimSpace(pending.String()), number: start})
	}

	return lines, nil
}

// Applies a single instruction line to the specification.
func (img *Image) applyInstruction(line string) error {
	keyword, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return fmt.Errorf("%s requires arguments", keyword)
	}

	switch strings.ToUpper(keyword) {
	case "FROM":
		img.From = rest
	case "WORKDIR":
		img.Workdir = rest
	case "COPY":
		return img.applyCopy(rest)
	case "ENV":
		return img.applyEnv(rest)
	case "RUN":
		img.applyRun(rest)
	case "CMD", "ENTRYPOINT":
		args, err := parseCommand(rest)
		if err != nil {
			return err
		}
		img.Command = args
	default:
		return fmt.Errorf("unsupported instruction %q", keyword)
	}

	return nil
}

// Applies a COPY instruction. Flags such as --from are multi-stage features
// and are rejected.
func (img *Image) applyCopy(rest string) error {
	fields := strings.Fields(rest)
	if len(fields) > 0 && strings.HasPrefix(fields[0], "--") {
		return fmt.Errorf("COPY flags are not supported: %s", fields[0])
	}
	if len(fields) != 2 {
		return fmt.Errorf("COPY expects source and destination, got %q", rest)
	}
	img.Copy = append(img.Copy, CopyRule{Src: fields[0], Dest: fields[1]})
	return nil
}

// Applies an ENV instruction in either "KEY=value" or legacy "KEY value"
// form.
func (img *Image) applyEnv(rest string) error {
	if img.Env == nil {
		img.Env = make(map[string]string)
	}

	if !strings.Contains(rest, "=") {
		k, v, ok := strings.Cut(rest, " ")
		if !ok {
			return fmt.Errorf("ENV expects a key and value, got %q", rest)
		}
		img.Env[k] = strings.TrimSpace(v)
		return nil
	}

	for rest != "" {
		rest = strings.TrimLeft(rest, " \t")
		if rest == "" {
			break
		}

		eq := strings.IndexByte(rest, '=')
		if eq <= 0 || strings.ContainsAny(rest[:eq], " \t") {
			return fmt.Errorf("malformed ENV entry %q", rest)
		}
		key := rest[:eq]
		rest = rest[eq+1:]

		// Double-quoted values may contain spaces.
		var value string
		if strings.HasPrefix(rest, `"`) {
			end := strings.Index(rest[1:], `"`)
			if end < 0 {
				return fmt.Errorf("unterminated quote in ENV value for %q", key)
			}
			value = rest[1 : 1+end]
			rest = rest[end+2:]
		} else if sp := strings.IndexAny(rest, " \t"); sp >= 0 {
			value, rest = rest[:sp], rest[sp+1:]
		} else {
			value, rest = rest, ""
		}

		img.Env[key] = value
	}
	return nil
}

// Applies a RUN instruction, folding package installs into the install step.
func (img *Image) applyRun(rest string) {
	fields := strings.Fields(rest)
	if len(fields) >= 3 && installManagers[fields[0]] && fields[1] == "install" {
		img.Install.Manager = fields[0]
		img.Install.Packages = append(img.Install.Packages, fields[2:]...)
		return
	}
	img.Run = append(img.Run, rest)
}

// Parses a CMD or ENTRYPOINT argument list in either exec (JSON array) or
// shell form.
func parseCommand(rest string) ([]string, error) {
	if strings.HasPrefix(rest, "[") {
		var args []string
		if err := json.Unmarshal([]byte(rest), &args); err != nil {
			return nil, fmt.Errorf("malformed exec form %q: %w", rest, err)
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("empty command %q", rest)
		}
		return args, nil
	}
	return strings.Fields(rest), nil
}

// Renders the specification as Dockerfile text.
//
// The output is a 1:1 transcription of the specification: base image,
// working directory, copy rules, environment, install step, build commands,
// and the entry point in exec form. Rendering an unchanged specification
// always yields identical text.
func (img *Image) Dockerfile() string {
	var b strings.Builder

	fmt.Fprintf(&b, "FROM %s\n", img.From)
	if img.Workdir != "" {
		fmt.Fprintf(&b, "WORKDIR %s\n", img.Workdir)
	}
	for _, rule := range img.Copy {
		fmt.Fprintf(&b, "COPY %s %s\n", rule.Src, rule.Dest)
	}
	for _, kv := range environ(img.Env) {
		fmt.Fprintf(&b, "ENV %s\n", kv)
	}
	if !img.Install.Empty() {
		fmt.Fprintf(&b, "RUN %s\n", img.Install.Command())
	}
	for _, cmd := range img.Run {
		fmt.Fprintf(&b, "RUN %s\n", cmd)
	}
	if len(img.Command) > 0 {
		args, _ := json.Marshal(img.Command)
		fmt.Fprintf(&b, "CMD %s\n", args)
	}

	return b.String()
}
