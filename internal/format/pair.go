package format

import (
	"fmt"
	"os"
	"time"

	"github.com/eliteGoblin/focusd/tracklog/internal/domain"
)

// Pair assembles a registry and trace the way the tracker agent records
// them: domains and entities are registered on first use and every event
// references its entity by id.
type Pair struct {
	Domains  []string
	Entities []domain.Entity
	Events   []domain.RawEvent
}

// NewPair creates a pair with the tracked domains registered in slot order
// and the startup marker entity in place.
func NewPair() *Pair {
	p := &Pair{}
	for _, k := range domain.Kinds {
		p.domainID(k.String())
	}
	p.EntityID(domain.KindRuntime.String(), domain.StartupEntity)
	return p
}

func (p *Pair) domainID(name string) uint8 {
	for i, d := range p.Domains {
		if d == name {
			return uint8(i)
		}
	}
	p.Domains = append(p.Domains, name)
	return uint8(len(p.Domains) - 1)
}

// EntityID returns the id of (domainName, name), registering both if needed.
func (p *Pair) EntityID(domainName, name string) uint16 {
	did := p.domainID(domainName)
	for i, e := range p.Entities {
		if e.DomainID == did && e.Name == name {
			return uint16(i)
		}
	}
	p.Entities = append(p.Entities, domain.Entity{DomainID: did, Name: name})
	return uint16(len(p.Entities) - 1)
}

// Add appends an event for (domainName, name) at ts.
func (p *Pair) Add(ts time.Time, domainName, name string) *Pair {
	return p.AddID(ts, p.EntityID(domainName, name))
}

// AddID appends an event referencing entity id directly, which may be
// unregistered.
func (p *Pair) AddID(ts time.Time, id uint16) *Pair {
	p.Events = append(p.Events, EventAt(ts, id))
	return p
}

// Startup appends the startup marker at ts.
func (p *Pair) Startup(ts time.Time) *Pair {
	return p.Add(ts, domain.KindRuntime.String(), domain.StartupEntity)
}

// Encode returns the registry and trace file images.
func (p *Pair) Encode() (registry, trace []byte, err error) {
	registry, err = EncodeRegistry(p.Domains, p.Entities)
	if err != nil {
		return nil, nil, err
	}
	trace, err = EncodeTrace(p.Events)
	if err != nil {
		return nil, nil, err
	}
	return registry, trace, nil
}

// Write stores the pair at base+".ttr" and base+".tte".
func (p *Pair) Write(base string) error {
	registry, trace, err := p.Encode()
	if err != nil {
		return err
	}
	registryPath, tracePath := Paths(base)
	if err := os.WriteFile(registryPath, registry, 0644); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := os.WriteFile(tracePath, trace, 0644); err != nil {
		return fmt.Errorf("failed to write trace: %w", err)
	}
	return nil
}

// EventAt builds the raw event for entity id at ts. The year must fall in
// 2000-2127.
func EventAt(ts time.Time, id uint16) domain.RawEvent {
	return domain.RawEvent{
		Date: domain.Date{
			Year:  uint8(ts.Year() - domain.BaseYear),
			Month: uint8(ts.Month()),
			Day:   uint8(ts.Day()),
		},
		Hour:     uint8(ts.Hour()),
		Minute:   uint8(ts.Minute()),
		Second:   uint8(ts.Second()),
		EntityID: id,
	}
}

// SamplePair returns a short working session starting at day 09:00 UTC:
// editor and browser use, an idle period and a shutdown.
func SamplePair(day time.Time) *Pair {
	at := func(h, m int) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, time.UTC)
	}
	runtime := domain.KindRuntime.String()
	system := domain.KindSystem.String()
	activity := domain.KindActivity.String()
	browser := domain.KindBrowser.String()
	vscode := domain.KindVSCode.String()

	return NewPair().
		Startup(at(9, 0)).
		Add(at(9, 1), system, "explorer.exe").
		Add(at(9, 5), system, "Code.exe").
		Add(at(9, 6), vscode, "tracklog").
		Add(at(10, 30), system, "chrome.exe").
		Add(at(10, 31), browser, "pkg.go.dev").
		Add(at(10, 45), browser, "github.com").
		Add(at(11, 0), system, "Code.exe").
		Add(at(11, 40), activity, "Idle").
		Add(at(12, 10), system, "chrome.exe").
		Add(at(12, 30), runtime, domain.ShutdownEntity)
}
