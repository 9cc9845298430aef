package navigation

import "github.com/google/uuid"

// Descriptor is the logical identity of a navigable screen, independent of
// its rendered form. Equality is pointer identity: two descriptors are the
// same screen only if they are the same instance, so the same kind can
// appear on a stack more than once.
type Descriptor interface {
	// ID uniquely identifies this descriptor instance for logging and the
	// wire protocol.
	ID() string

	// Kind names the route this descriptor was created from; the resolver
	// uses it together with the contract to pick a screen factory.
	Kind() string

	// Title is the human-readable name used in logs and host chrome.
	Title() string

	// Contract is an optional variant tag narrowing resolution.
	Contract() string
}

// Page is the basic descriptor implementation.
type Page struct {
	id       string
	kind     string
	title    string
	contract string
}

// NewPage creates a page descriptor with a fresh identity.
func NewPage(kind, title, contract string) *Page {
	return &Page{
		id:       uuid.New().String(),
		kind:     kind,
		title:    title,
		contract: contract,
	}
}

func (p *Page) ID() string       { return p.id }
func (p *Page) Kind() string     { return p.kind }
func (p *Page) Title() string    { return p.title }
func (p *Page) Contract() string { return p.contract }

// Container is a descriptor that owns its own nested page stack: a
// navigation container presented modally. While it sits on the modal stack
// its nested stack is the current stack for all page operations.
type Container struct {
	id       string
	kind     string
	contract string
	pages    *StackModel
}

// NewContainer creates a container descriptor seeded with the given pages.
// A container may be constructed empty, but pushing it as a modal before at
// least one page is seeded fails with ErrInvalidState.
func NewContainer(kind, contract string, pages ...Descriptor) *Container {
	c := &Container{
		id:       uuid.New().String(),
		kind:     kind,
		contract: contract,
		pages:    NewStackModel("container:" + kind),
	}
	if len(pages) > 0 {
		c.pages.replaceAll(pages)
	}
	return c
}

func (c *Container) ID() string       { return c.id }
func (c *Container) Kind() string     { return c.kind }
func (c *Container) Contract() string { return c.contract }

// Title delegates to the first nested page. The first page is the one the
// container was opened on, so the container reads as that screen.
func (c *Container) Title() string {
	if items := c.pages.Current(); len(items) > 0 {
		return items[0].Title()
	}
	return ""
}

// Pages exposes the container's nested page stack.
func (c *Container) Pages() *StackModel { return c.pages }
