package webserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

//go:embed templates
var embeddedTemplates embed.FS

// pageSet describes how one named view is assembled from template files
type pageSet struct {
	entry string
	files []string
}

var pageSets = map[string]pageSet{
	"recetas/index": {
		entry: "layout",
		files: []string{"layout.html", "recetas/index.html", "recetas/recipe_list_fragment.html"},
	},
	"recetas/recipe_list_fragment": {
		entry: "recipe_list",
		files: []string{"recetas/recipe_list_fragment.html"},
	},
	"error": {
		entry: "layout",
		files: []string{"layout.html", "error.html"},
	},
}

// Renderer executes the server-side views
type Renderer struct {
	fsys    fs.FS
	logger  *zap.Logger
	mu      sync.RWMutex
	views   map[string]*template.Template
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewRenderer parses the embedded templates
func NewRenderer(logger *zap.Logger) (*Renderer, error) {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return nil, fmt.Errorf("open embedded templates: %w", err)
	}
	return newRenderer(sub, logger)
}

// NewDirRenderer parses templates from dir and reparses them whenever a
// file under dir changes. A reload that fails to parse keeps the previous
// views.
func NewDirRenderer(dir string, logger *zap.Logger) (*Renderer, error) {
	r, err := newRenderer(os.DirFS(dir), logger)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create template watcher: %w", err)
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch template dir: %w", err)
	}

	r.watcher = watcher
	r.done = make(chan struct{})
	go r.watch()

	r.logger.Info("Template hot reload enabled", zap.String("dir", dir))
	return r, nil
}

func newRenderer(fsys fs.FS, logger *zap.Logger) (*Renderer, error) {
	r := &Renderer{
		fsys:   fsys,
		logger: logger.Named("renderer"),
	}
	views, err := r.parse()
	if err != nil {
		return nil, err
	}
	r.views = views
	return r, nil
}

func (r *Renderer) parse() (map[string]*template.Template, error) {
	views := make(map[string]*template.Template, len(pageSets))
	for name, set := range pageSets {
		tmpl, err := template.New(name).Funcs(templateFuncs()).ParseFS(r.fsys, set.files...)
		if err != nil {
			return nil, fmt.Errorf("parse view %q: %w", name, err)
		}
		views[name] = tmpl
	}
	return views, nil
}

// watch reparses after writes settle; editors emit several events per save
func (r *Renderer) watch() {
	defer close(r.done)

	var debounce <-chan time.Time
	for {
		select {
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				debounce = time.After(100 * time.Millisecond)
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("Template watcher error", zap.Error(err))
		case <-debounce:
			debounce = nil
			r.Reload()
		}
	}
}

// Reload reparses every view. On error the current views stay in place.
func (r *Renderer) Reload() {
	views, err := r.parse()
	if err != nil {
		r.logger.Error("Template reload failed, keeping previous templates", zap.Error(err))
		return
	}

	r.mu.Lock()
	r.views = views
	r.mu.Unlock()

	r.logger.Info("Templates reloaded")
}

// Render executes view name into w with the given status. The output is
// buffered so a template error never leaves a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data interface{}) error {
	r.mu.RLock()
	tmpl, ok := r.views[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown view %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, pageSets[name].entry, data); err != nil {
		return fmt.Errorf("execute view %q: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Close stops the template watcher, if any
func (r *Renderer) Close() error {
	if r.watcher == nil {
		return nil
	}
	err := r.watcher.Close()
	<-r.done
	return err
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("02/01/2006")
		},
		"footprint": func(kg float64) string {
			return fmt.Sprintf("%.2f kg CO₂e", kg)
		},
	}
}
