package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/jwebster45206/button-commands/internal/lang"
	"github.com/jwebster45206/button-commands/pkg/button"
	"github.com/jwebster45206/button-commands/pkg/placeholder"
)

func main() {
	langFile := flag.Bool("lang", false, "validate a language file instead of a data file")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-lang] <file.json>\n", os.Args[0])
		os.Exit(1)
	}

	filename := flag.Arg(0)
	validator := &Validator{}

	var err error
	if *langFile {
		err = validator.validateLangFile(filename)
	} else {
		err = validator.validateDataFile(filename)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	for _, w := range validator.warnings {
		fmt.Println("warning:" + strings.TrimPrefix(w, "  -"))
	}
	fmt.Println("File is valid!")
}

type Validator struct {
	errors   []string
	warnings []string
}

func (v *Validator) readStrict(filename string, out any) error {
	fmt.Printf("Validating %s...\n", filename)

	if !strings.HasSuffix(filepath.Base(filename), ".json") {
		return fmt.Errorf("file must have .json extension: %s", filepath.Base(filename))
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}
	return nil
}

func (v *Validator) validateDataFile(filename string) error {
	v.errors, v.warnings = nil, nil

	var data button.StoredData
	if err := v.readStrict(filename, &data); err != nil {
		return err
	}

	v.validateStoredData(&data)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *Validator) validateStoredData(data *button.StoredData) {
	switch {
	case data.Version == "":
		v.addWarning(fmt.Sprintf("no Version; it will be stamped %s on load", button.CurrentVersion))
	case button.CompareVersions(data.Version, button.BaselineVersion) < 0:
		v.addWarning(fmt.Sprintf("Version %s is older than %s; the buttons will be replaced with defaults on load",
			data.Version, button.BaselineVersion))
	case button.CompareVersions(data.Version, button.CurrentVersion) > 0:
		v.addWarning(fmt.Sprintf("Version %s is newer than this build (%s)", data.Version, button.CurrentVersion))
	}

	if data.PressButtons == nil {
		v.addError(`missing "Press Buttons"`)
		return
	}

	ids := make([]uint64, 0, len(data.PressButtons))
	for id := range data.PressButtons {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		v.validateBehavior(id, data.PressButtons[id])
	}
}

func (v *Validator) validateBehavior(id uint64, b button.Behavior) {
	if id == 0 {
		v.addError("button id 0 is not a valid entity id")
	}
	if err := b.Validate(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			v.addError(fmt.Sprintf("button %d: %s", id, line))
		}
	}
	if len(b.Commands) == 0 {
		v.addWarning(fmt.Sprintf("button %d has no commands", id))
	}
	if b.RunRandomCommand && len(b.Commands) == 1 {
		v.addWarning(fmt.Sprintf("button %d runs a random command but only has one", id))
	}
	for i, c := range b.Commands {
		for _, tok := range tokenRegex.FindAllString(c.Command, -1) {
			if !slices.Contains(placeholder.Tokens(), tok) {
				v.addWarning(fmt.Sprintf("button %d command %d: unknown placeholder %s is sent literally", id, i, tok))
			}
		}
	}
}

func (v *Validator) validateLangFile(filename string) error {
	v.errors, v.warnings = nil, nil

	var messages map[string]string
	if err := v.readStrict(filename, &messages); err != nil {
		return err
	}

	known := lang.Keys()
	for key, text := range messages {
		if !slices.Contains(known, key) {
			v.addWarning(fmt.Sprintf("unknown message key %s", key))
		}
		if strings.TrimSpace(text) == "" {
			v.addError(fmt.Sprintf("message %s is empty", key))
		}
	}
	for _, key := range known {
		if _, ok := messages[key]; !ok {
			v.addWarning(fmt.Sprintf("message %s is not translated; English is used", key))
		}
	}
	if text, ok := messages[lang.ErrorCooldownActive]; ok && !strings.Contains(text, "{0}") {
		v.addError(fmt.Sprintf("message %s must contain {0} for the remaining time", lang.ErrorCooldownActive))
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *Validator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func (v *Validator) addWarning(msg string) {
	v.warnings = append(v.warnings, "  - "+msg)
}

var tokenRegex = regexp.MustCompile(`\{[A-Za-z]+\}`)
