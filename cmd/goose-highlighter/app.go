package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/gooseworks/highlighter/pkg/config"
	"github.com/gooseworks/highlighter/pkg/dom"
	"github.com/gooseworks/highlighter/pkg/engine"
	"github.com/gooseworks/highlighter/pkg/lists"
	"github.com/gooseworks/highlighter/pkg/messaging"
	"github.com/gooseworks/highlighter/pkg/storage"
)

// RunOptions holds the command-line selections.
type RunOptions struct {
	StorePath  string
	PagePath   string
	Host       string
	Summary    bool
	Render     bool
	Navigate   string
	ImportPath string
	Export     bool
}

// Application wires the store, bus, manager, document and engine together.
type Application struct {
	cfg     *config.Config
	opts    RunOptions
	store   *storage.Store
	bus     *messaging.Bus
	manager *lists.Manager
	doc     *dom.Document
	engine  *engine.Engine
}

// NewApplication builds all dependencies for one invocation.
func NewApplication(cfg *config.Config, opts RunOptions) (*Application, error) {
	storePath := opts.StorePath
	if storePath == "" {
		storePath = cfg.StorePath
	}
	if storePath == "" {
		storePath = config.DefaultStorePath()
	}
	if dir := filepath.Dir(storePath); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}

	store, err := storage.Open(storePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings store: %w", err)
	}

	bus := messaging.NewBus()
	return &Application{
		cfg:     cfg,
		opts:    opts,
		store:   store,
		bus:     bus,
		manager: lists.NewManager(store, bus),
	}, nil
}

// Close releases the application's resources.
func (a *Application) Close() {
	if a.engine != nil {
		a.engine.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}

// Run executes the requested actions.
func (a *Application) Run() error {
	ctx := context.Background()

	if a.opts.ImportPath != "" {
		raw, err := os.ReadFile(a.opts.ImportPath)
		if err != nil {
			return fmt.Errorf("failed to read import file: %w", err)
		}
		if err := a.manager.Import(ctx, raw); err != nil {
			return fmt.Errorf("failed to import word lists: %w", err)
		}
	}

	if a.opts.Export {
		raw, err := a.manager.Export(ctx)
		if err != nil {
			return fmt.Errorf("failed to export word lists: %w", err)
		}
		fmt.Println(string(raw))
		return nil
	}

	if err := a.loadPage(); err != nil {
		return err
	}

	a.engine = engine.New(a.doc, a.store, a.bus, a.cfg)
	if err := a.engine.Start(ctx); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	if a.opts.Summary {
		a.printSummary()
	}
	if a.opts.Render {
		a.printAnnotated()
	}
	if a.opts.Navigate != "" {
		a.navigate()
	}
	return nil
}

func (a *Application) loadPage() error {
	var r io.Reader
	if a.opts.PagePath == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(a.opts.PagePath)
		if err != nil {
			return fmt.Errorf("failed to open page: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	doc, err := dom.Parse(r)
	if err != nil {
		return fmt.Errorf("failed to parse page: %w", err)
	}
	doc.SetHostname(a.opts.Host)
	a.doc = doc
	return nil
}

func (a *Application) printSummary() {
	summary := a.engine.Summary()
	if len(summary) == 0 {
		fmt.Println("no matches")
		return
	}
	for _, s := range summary {
		fmt.Printf("%-30s %4d  %s on %s\n", s.Word, s.Count, s.Foreground, s.Background)
	}
}

// printAnnotated prints every matched text node with match spans wrapped in
// guillemets, in document order.
func (a *Application) printAnnotated() {
	byNode := make(map[*html.Node][]dom.Range)
	for _, ranges := range a.engine.Renderer().Registry() {
		for _, rg := range ranges {
			byNode[rg.Node] = append(byNode[rg.Node], rg)
		}
	}

	a.doc.Walk(func(n *html.Node) bool {
		ranges, ok := byNode[n]
		if !ok {
			return true
		}
		sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })

		var b strings.Builder
		pos := 0
		for _, rg := range ranges {
			b.WriteString(n.Data[pos:rg.Start])
			b.WriteString("«")
			b.WriteString(n.Data[rg.Start:rg.End])
			b.WriteString("»")
			pos = rg.End
		}
		b.WriteString(n.Data[pos:])
		fmt.Println(strings.TrimSpace(b.String()))
		return true
	})
}

func (a *Application) navigate() {
	word := a.opts.Navigate
	index := 0
	if at := strings.LastIndex(word, ":"); at > 0 {
		if n, err := strconv.Atoi(word[at+1:]); err == nil {
			index = n
			word = word[:at]
		}
	}

	if !a.engine.Navigate(word, index) {
		fmt.Printf("no occurrences of %q\n", word)
		return
	}

	view := a.doc.Viewport()
	fmt.Printf("navigated to %q occurrence %d (viewport top: line %d)\n", word, index, view.Top)
	if c := a.doc.FocusedControl(); c != nil {
		start, end := c.Selection()
		fmt.Printf("selected %q in focused control\n", c.Value()[start:end])
	}
}
