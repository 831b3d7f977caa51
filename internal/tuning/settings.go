package tuning

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"voxelscan.ai/internal/ids"
)

// SettingsFileName is the settings file inside the config directory.
const SettingsFileName = "resource-scanner.json"

//go:embed schemas/settings.schema.json
var settingsSchemaJSON string

var settingsSchema = jsonschema.MustCompileString("settings.schema.json", settingsSchemaJSON)

// Settings are the user-editable scan parameters.
type Settings struct {
	EchoesSize    int
	BlockDistance int
	BlockRadius   int
	Interesting   ids.Set
}

func (t Tuning) Settings() (Settings, error) {
	set, err := ids.ParseSet(t.InterestingIDs)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return Settings{
		EchoesSize:    t.EchoesSize,
		BlockDistance: t.BlockDistance,
		BlockRadius:   t.BlockRadius,
		Interesting:   set,
	}, nil
}

type settingsJSON struct {
	EchoesSize     int      `json:"echoesSize"`
	BlockDistance  int      `json:"blockDistance"`
	BlockRadius    int      `json:"blockRadius"`
	InterestingIDs []string `json:"interestingIds"`
}

// ParseSettings validates raw against the settings schema and decodes it.
// Missing numbers read as zero.
func ParseSettings(raw []byte) (Settings, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if err := settingsSchema.Validate(doc); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	var js settingsJSON
	if err := json.Unmarshal(raw, &js); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	set, err := ids.ParseSet(js.InterestingIDs)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return Settings{
		EchoesSize:    js.EchoesSize,
		BlockDistance: js.BlockDistance,
		BlockRadius:   js.BlockRadius,
		Interesting:   set,
	}, nil
}

// Marshal writes the settings with ids sorted.
func (s Settings) Marshal() ([]byte, error) {
	list := s.Interesting.Strings()
	return json.Marshal(settingsJSON{
		EchoesSize:     s.EchoesSize,
		BlockDistance:  s.BlockDistance,
		BlockRadius:    s.BlockRadius,
		InterestingIDs: list,
	})
}

// SettingsFile keeps the settings in a JSON file and tells listeners when
// they change.
type SettingsFile struct {
	mu        sync.Mutex
	dir       string
	current   *Settings
	listeners []func(Settings)
	logger    *log.Logger
}

func NewSettingsFile(dir string, logger *log.Logger) *SettingsFile {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &SettingsFile{dir: dir, logger: logger}
}

func (f *SettingsFile) Path() string { return filepath.Join(f.dir, SettingsFileName) }

func (f *SettingsFile) OnChange(fn func(Settings)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

func (f *SettingsFile) Current() (Settings, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return Settings{}, false
	}
	return *f.current, true
}

// Load reads the file. Valid settings become current and are dispatched;
// a missing or invalid file clears them and dispatches nothing.
func (f *SettingsFile) Load() (Settings, error) {
	f.mu.Lock()
	f.current = nil
	raw, err := os.ReadFile(f.Path())
	if err != nil {
		f.mu.Unlock()
		return Settings{}, err
	}
	s, err := ParseSettings(raw)
	if err != nil {
		f.mu.Unlock()
		return Settings{}, fmt.Errorf("%s: %w", f.Path(), err)
	}
	f.current = &s
	listeners := append([]func(Settings){}, f.listeners...)
	f.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
	return s, nil
}

// SetAll replaces the settings and writes them out. Listeners hear about
// the change when notify is set, even if the write failed.
func (f *SettingsFile) SetAll(s Settings, notify bool) error {
	f.mu.Lock()
	f.current = &s
	err := f.storeLocked()
	var listeners []func(Settings)
	if notify {
		listeners = append(listeners, f.listeners...)
	}
	f.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
	return err
}

// Store writes the current settings.
func (f *SettingsFile) Store() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.storeLocked()
}

func (f *SettingsFile) storeLocked() error {
	if f.current == nil {
		return fmt.Errorf("%w: nothing to store", ErrInvalidSettings)
	}
	raw, err := f.current.Marshal()
	if err != nil {
		return err
	}
	f.logger.Printf("settings: %s", raw)
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(f.Path(), raw, 0o644)
}
