package dashboard

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cespare/xxhash/v2"
)

// Component is a dashboard panel.
type Component interface {
	Init() tea.Cmd
	Update(msg tea.Msg, data Data) (Component, tea.Cmd)
	View(width, height int) string

	ID() string
	Title() string
	MinHeight() int
}

// BaseComponent provides shared panel plumbing, including a hash-based render
// cache so unchanged panels are not re-rendered every tick.
type BaseComponent struct {
	id    string
	title string
	minH  int

	lastHash uint64
	cached   string
}

func (c *BaseComponent) ID() string     { return c.id }
func (c *BaseComponent) Title() string  { return c.title }
func (c *BaseComponent) MinHeight() int { return c.minH }
func (c *BaseComponent) Init() tea.Cmd  { return nil }

// CheckCache returns true when content and dimensions are unchanged since
// the last render.
func (c *BaseComponent) CheckCache(content string, w, h int) bool {
	h64 := xxhash.Sum64String(fmt.Sprintf("%dx%d|%s", w, h, content))
	if h64 == c.lastHash && c.cached != "" {
		return true
	}
	c.lastHash = h64
	return false
}

func (c *BaseComponent) UpdateCache(rendered string) { c.cached = rendered }
func (c *BaseComponent) GetCached() string           { return c.cached }

// Registry holds panels in registration order.
type Registry struct {
	order      []string
	components map[string]Component
}

func NewRegistry() *Registry {
	return &Registry{components: make(map[string]Component)}
}

func (r *Registry) Register(comp Component) {
	id := comp.ID()
	if _, exists := r.components[id]; !exists {
		r.order = append(r.order, id)
	}
	r.components[id] = comp
}

func (r *Registry) Get(id string) Component { return r.components[id] }

func (r *Registry) All() []Component {
	comps := make([]Component, 0, len(r.order))
	for _, id := range r.order {
		comps = append(comps, r.components[id])
	}
	return comps
}

// UpdateAll updates every panel in registration order.
func (r *Registry) UpdateAll(msg tea.Msg, data Data) []tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(r.order))
	for _, id := range r.order {
		updated, cmd := r.components[id].Update(msg, data)
		r.components[id] = updated
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}
