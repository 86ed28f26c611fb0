package card

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// Catalog holds every card available to a front end.
// User templates override bundled ones with the same name.
type Catalog struct {
	mu      sync.RWMutex
	userDir string
	logger  *slog.Logger
	cards   map[string]*Card
}

// NewCatalog creates an empty catalog. userDir may be empty.
func NewCatalog(userDir string, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		userDir: userDir,
		logger:  logger,
		cards:   make(map[string]*Card),
	}
}

// Load (re)reads bundled and user templates.
// Broken user templates are logged and skipped; a broken bundled template is
// an error.
func (c *Catalog) Load() error {
	cards := make(map[string]*Card)

	for _, name := range ListEmbedded() {
		card, err := GetEmbedded(name)
		if err != nil {
			return err
		}
		cards[card.Name] = card
	}

	if c.userDir != "" {
		paths, err := c.userTemplates()
		if err != nil {
			return err
		}
		for _, rel := range paths {
			path := filepath.Join(c.userDir, filepath.FromSlash(rel))
			card, err := LoadFile(path)
			if err != nil {
				c.logger.Warn("skipping invalid card template", "path", path, "error", err)
				continue
			}
			if _, exists := cards[card.Name]; exists {
				c.logger.Debug("user card overrides bundled card", "name", card.Name, "path", path)
			}
			cards[card.Name] = card
		}
	}

	c.mu.Lock()
	c.cards = cards
	c.mu.Unlock()

	c.logger.Debug("card catalog loaded", "count", len(cards), "user_dir", c.userDir)
	return nil
}

// userTemplates lists *.xml files below the user directory, including
// subdirectories, in lexical order so later files win on duplicate names.
func (c *Catalog) userTemplates() ([]string, error) {
	info, err := os.Stat(c.userDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cards directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cards path %s is not a directory", c.userDir)
	}

	paths, err := doublestar.Glob(os.DirFS(c.userDir), "**/*.xml", doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to scan cards directory: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Get returns the card with the given name.
func (c *Catalog) Get(name string) (*Card, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	card, ok := c.cards[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCard, name)
	}
	return card, nil
}

// All returns every card sorted by name.
func (c *Catalog) All() []*Card {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cards := make([]*Card, 0, len(c.cards))
	for _, card := range c.cards {
		cards = append(cards, card)
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].Name < cards[j].Name })
	return cards
}

// Names returns every card name, sorted.
func (c *Catalog) Names() []string {
	cards := c.All()
	names := make([]string, len(cards))
	for i, card := range cards {
		names[i] = card.Name
	}
	return names
}

// Len returns the number of cards.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cards)
}
