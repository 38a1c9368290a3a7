package lang

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/button-commands/pkg/host"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	ErrorNoPermission      = "Error.NoPermission"
	ErrorAlreadyRegistered = "Error.AlreadyRegistered"
	ErrorNoButtonInSight   = "Error.NoButtonInSight"
	ErrorNoButtonInRange   = "Error.NoButtonInRange"
	ErrorCooldownActive    = "Error.CooldownActive"
	InfoButtonRegistered   = "Info.ButtonRegistered"
)

// FileName is the per-language override file looked up under <dir>/<lang>/.
const FileName = "ButtonCommands.json"

var defaultMessages = map[string]string{
	ErrorNoPermission:      "You do not have permission to use this command.",
	ErrorAlreadyRegistered: "This button already has commands assigned.",
	ErrorNoButtonInSight:   "You must be looking directly at a button to register it.",
	ErrorNoButtonInRange:   "You are too far away from the button to register it.",
	ErrorCooldownActive:    "You must wait %s before using this button again.",
	InfoButtonRegistered:   "Button registered successfully. It will now run the assigned commands.",
}

// Keys returns every message key.
func Keys() []string {
	return []string{
		ErrorNoPermission,
		ErrorAlreadyRegistered,
		ErrorNoButtonInSight,
		ErrorNoButtonInRange,
		ErrorCooldownActive,
		InfoButtonRegistered,
	}
}

// Localizer renders message keys in a player's language, falling back to
// English for anything not translated.
type Localizer struct {
	cat        *catalog.Builder
	defaultTag language.Tag
	logger     *slog.Logger
}

// New builds a Localizer with the English messages. defaultLang is used for
// players that do not report a language; an unparsable value means English.
func New(defaultLang string, logger *slog.Logger) *Localizer {
	cat := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msg := range defaultMessages {
		// Und terminates every tag's parent chain, so untranslated keys
		// resolve to English for any language.
		_ = cat.SetString(language.English, key, msg)
		_ = cat.SetString(language.Und, key, msg)
	}

	tag, err := language.Parse(defaultLang)
	if err != nil || defaultLang == "" {
		tag = language.English
	}

	return &Localizer{
		cat:        cat,
		defaultTag: tag,
		logger:     logger,
	}
}

// LoadDir reads <dir>/<lang>/ButtonCommands.json for every language directory
// present. Each file is a flat key to text object; "{0}" style arguments are
// accepted. A missing dir is not an error.
func (l *Localizer) LoadDir(dir string) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Debug("Language directory not found, using built-in messages", "dir", dir)
			return nil
		}
		return fmt.Errorf("failed to read language directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		tag, err := language.Parse(entry.Name())
		if err != nil {
			l.logger.Warn("Skipping language directory with invalid tag", "dir", entry.Name(), "error", err)
			continue
		}

		path := filepath.Join(dir, entry.Name(), FileName)
		raw, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to read language file %s: %w", path, err)
		}

		var messages map[string]string
		if err := json.Unmarshal(raw, &messages); err != nil {
			return fmt.Errorf("failed to parse language file %s: %w", path, err)
		}
		for key, text := range messages {
			if err := l.set(tag, key, convertPlaceholders(text)); err != nil {
				return fmt.Errorf("failed to set message %s for %s: %w", key, tag, err)
			}
		}
		l.logger.Info("Loaded language overrides", "language", tag.String(), "messages", len(messages))
	}
	return nil
}

func (l *Localizer) set(tag language.Tag, key, msg string) error {
	if err := l.cat.SetString(tag, key, msg); err != nil {
		return err
	}
	if tag == language.English {
		return l.cat.SetString(language.Und, key, msg)
	}
	return nil
}

var indexedArg = regexp.MustCompile(`\{(\d+)\}`)

// convertPlaceholders turns "{0}" style arguments into "%[1]v" verbs.
func convertPlaceholders(text string) string {
	text = strings.ReplaceAll(text, "%", "%%")
	return indexedArg.ReplaceAllStringFunc(text, func(m string) string {
		var n int
		_, _ = fmt.Sscanf(m, "{%d}", &n)
		return fmt.Sprintf("%%[%d]v", n+1)
	})
}

// Get renders key in the language lang.
func (l *Localizer) Get(lang, key string, args ...any) string {
	tag := l.defaultTag
	if lang != "" {
		if parsed, err := language.Parse(lang); err == nil {
			tag = parsed
		}
	}
	p := message.NewPrinter(tag, message.Catalog(l.cat))
	return p.Sprintf(key, args...)
}

// Message renders key for player, using the player's language when the host
// reports one.
func (l *Localizer) Message(player host.Player, key string, args ...any) string {
	lang := ""
	if loc, ok := player.(host.Localized); ok {
		lang = loc.Language()
	}
	return l.Get(lang, key, args...)
}
