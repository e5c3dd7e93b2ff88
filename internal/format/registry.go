package format

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/tracklog/internal/domain"
)

// RegistryMagic tags registry files.
const RegistryMagic = "TTR"

// registryHeaderSize is magic(3) + domains start(4) + domains end(4) + entities start(4).
const registryHeaderSize = 15

// RegistryFile is a decoded registry (.ttr) holding the domain and entity
// tables. A RegistryFile whose decode failed stays not ready: every accessor
// then reports not-found and Err returns the cause.
type RegistryFile struct {
	path     string
	domains  []string
	entities []domain.Entity
	ready    bool
	err      error
	diag     domain.Diagnostics
}

// OpenRegistry reads and decodes the registry at path.
func OpenRegistry(path string, diag domain.Diagnostics) *RegistryFile {
	diag = diagOrNop(diag)
	data, err := readFile("open registry", path, diag)
	if err != nil {
		diag.Note("failed to open file", zap.String("path", path))
		return &RegistryFile{path: path, err: err, diag: diag}
	}
	r := DecodeRegistry(data, diag)
	r.path = path
	if r.err != nil {
		r.err = withPath(r.err, path)
		diag.Note("failed to parse file", zap.String("path", path))
	}
	return r
}

// DecodeRegistry decodes a registry from its raw bytes.
func DecodeRegistry(data []byte, diag domain.Diagnostics) *RegistryFile {
	r := &RegistryFile{diag: diagOrNop(diag)}
	domains, entities, err := parseRegistry(data)
	if err != nil {
		r.err = err
		r.diag.Error("failed to parse registry", zap.Error(err))
		return r
	}
	r.domains = domains
	r.entities = entities
	r.ready = true
	return r
}

func parseRegistry(data []byte) ([]string, []domain.Entity, error) {
	c := newCursor("decode registry", data)
	if err := c.magic(RegistryMagic); err != nil {
		return nil, nil, err
	}
	domainsStart, err := c.u32("domain block offset")
	if err != nil {
		return nil, nil, err
	}
	// The domain block end is only needed by the writer for in-place growth.
	if _, err := c.u32("domain block end"); err != nil {
		return nil, nil, err
	}
	entitiesStart, err := c.u32("entity block offset")
	if err != nil {
		return nil, nil, err
	}

	if err := c.seek(domainsStart); err != nil {
		return nil, nil, err
	}
	n, err := c.u8("domain count")
	if err != nil {
		return nil, nil, err
	}
	domains := make([]string, 0, n)
	for i := 0; i < int(n); i++ {
		name, err := c.str(fmt.Sprintf("domain %d", i))
		if err != nil {
			return nil, nil, err
		}
		domains = append(domains, name)
	}

	if err := c.seek(entitiesStart); err != nil {
		return nil, nil, err
	}
	m, err := c.u16("entity count")
	if err != nil {
		return nil, nil, err
	}
	// Each entity needs at least two bytes; reject counts the file cannot hold
	// before allocating.
	if int(m)*2 > c.remaining() {
		return nil, nil, domain.FormatErrorf(c.op, "entity count %d exceeds remaining %d bytes", m, c.remaining())
	}
	entities := make([]domain.Entity, 0, m)
	for i := 0; i < int(m); i++ {
		did, err := c.u8(fmt.Sprintf("entity %d domain", i))
		if err != nil {
			return nil, nil, err
		}
		name, err := c.str(fmt.Sprintf("entity %d", i))
		if err != nil {
			return nil, nil, err
		}
		entities = append(entities, domain.Entity{DomainID: did, Name: name})
	}
	return domains, entities, nil
}

// Path returns the file the registry was read from, if any.
func (r *RegistryFile) Path() string { return r.path }

// Ready reports whether decoding completed.
func (r *RegistryFile) Ready() bool { return r.ready }

// Err returns the decode failure, or nil.
func (r *RegistryFile) Err() error { return r.err }

func (r *RegistryFile) checkReady(op string) bool {
	if !r.ready {
		r.diag.Error("invalid state", zap.String("op", op))
		return false
	}
	return true
}

// Domains returns a copy of the domain names indexed by domain id.
func (r *RegistryFile) Domains() []string {
	if !r.ready {
		return nil
	}
	return append([]string(nil), r.domains...)
}

// Entities returns a copy of the entities indexed by entity id.
func (r *RegistryFile) Entities() []domain.Entity {
	if !r.ready {
		return nil
	}
	return append([]domain.Entity(nil), r.entities...)
}

// Domain returns the name of domain id.
func (r *RegistryFile) Domain(id uint8) (string, bool) {
	if !r.checkReady("domain") {
		return "", false
	}
	if int(id) >= len(r.domains) {
		r.diag.Error("domain id does not exist", zap.Uint8("domain_id", id))
		return "", false
	}
	return r.domains[id], true
}

// Entity returns entity id.
func (r *RegistryFile) Entity(id uint16) (domain.Entity, bool) {
	if !r.checkReady("entity") {
		return domain.Entity{}, false
	}
	if int(id) >= len(r.entities) {
		r.diag.Error("entity id does not exist", zap.Uint16("entity_id", id))
		return domain.Entity{}, false
	}
	return r.entities[id], true
}

// DomainID returns the id of the domain called name.
func (r *RegistryFile) DomainID(name string) (uint8, bool) {
	if !r.checkReady("domain id") {
		return 0, false
	}
	for i, d := range r.domains {
		if d == name {
			return uint8(i), true
		}
	}
	return 0, false
}

// DomainExists reports whether a domain called name is registered.
func (r *RegistryFile) DomainExists(name string) bool {
	_, ok := r.DomainID(name)
	return ok
}

// EntityID returns the id of the first entity matching (domainID, name).
func (r *RegistryFile) EntityID(domainID uint8, name string) (uint16, bool) {
	if !r.checkReady("entity id") {
		return 0, false
	}
	for i, e := range r.entities {
		if e.DomainID == domainID && e.Name == name {
			return uint16(i), true
		}
	}
	return 0, false
}

// EntityExists reports whether (domainID, name) is registered.
func (r *RegistryFile) EntityExists(domainID uint8, name string) bool {
	_, ok := r.EntityID(domainID, name)
	return ok
}

// Resolve maps an entity id to its domain name and entity name.
func (r *RegistryFile) Resolve(entityID uint16) (domainName, entityName string, err error) {
	if !r.ready {
		return "", "", domain.StateError("resolve entity")
	}
	if int(entityID) >= len(r.entities) {
		return "", "", domain.LookupErrorf("resolve entity", "entity id %d out of range (%d entities)", entityID, len(r.entities))
	}
	e := r.entities[entityID]
	if int(e.DomainID) >= len(r.domains) {
		return "", "", domain.LookupErrorf("resolve entity", "entity %d references domain %d out of range (%d domains)",
			entityID, e.DomainID, len(r.domains))
	}
	return r.domains[e.DomainID], e.Name, nil
}

// EncodeRegistry produces the byte layout of a registry file holding domains
// and entities. The entity block directly follows the domain block.
func EncodeRegistry(domains []string, entities []domain.Entity) ([]byte, error) {
	if len(domains) > math.MaxUint8 {
		return nil, fmt.Errorf("too many domains: %d", len(domains))
	}
	if len(entities) > math.MaxUint16 {
		return nil, fmt.Errorf("too many entities: %d", len(entities))
	}

	w := newWriter(RegistryMagic)
	w.u32(registryHeaderSize)
	endPos := w.reserve32()
	entitiesPos := w.reserve32()

	w.u8(uint8(len(domains)))
	for _, d := range domains {
		if err := w.str(d); err != nil {
			return nil, fmt.Errorf("domain %q: %w", d, err)
		}
	}
	w.patch32(endPos, uint32(w.len()))
	w.patch32(entitiesPos, uint32(w.len()))

	w.u16(uint16(len(entities)))
	for _, e := range entities {
		w.u8(e.DomainID)
		if err := w.str(e.Name); err != nil {
			return nil, fmt.Errorf("entity %q: %w", e.Name, err)
		}
	}
	return w.bytes(), nil
}

var _ domain.Registry = (*RegistryFile)(nil)
