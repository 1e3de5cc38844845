package mapping

import "sync"

// discriminatorLookup maps stored type tags to entity models. It is
// append-only: a tag, once bound, never changes type, and rebinding a
// tag to a different type is an error.
type discriminatorLookup struct {
	tags sync.Map // string -> *EntityModel
}

// lookup returns the model registered under tag.
func (l *discriminatorLookup) lookup(tag string) (*EntityModel, error) {
	if m, ok := l.tags.Load(tag); ok {
		return m.(*EntityModel), nil
	}
	return nil, &UnknownDiscriminatorError{Tag: tag}
}

// addModel registers the model under its configured discriminator and,
// when it differs, under its simple type name as a legacy alias.
func (l *discriminatorLookup) addModel(m *EntityModel) error {
	if !m.useDiscriminator {
		return nil
	}
	if err := l.bind(m.discriminator, m); err != nil {
		return err
	}
	if alias := m.Name(); alias != m.discriminator {
		return l.bind(alias, m)
	}
	return nil
}

func (l *discriminatorLookup) bind(tag string, m *EntityModel) error {
	existing, loaded := l.tags.LoadOrStore(tag, m)
	if loaded && existing.(*EntityModel).typ != m.typ {
		return &DuplicateDiscriminatorError{
			Tag:      tag,
			Existing: existing.(*EntityModel).typ,
			Claimant: m.typ,
		}
	}
	return nil
}

// unbind removes the model's tags, used only to roll back a
// registration whose validation failed.
func (l *discriminatorLookup) unbind(m *EntityModel) {
	if !m.useDiscriminator {
		return
	}
	if existing, ok := l.tags.Load(m.discriminator); ok && existing.(*EntityModel) == m {
		l.tags.Delete(m.discriminator)
	}
	if existing, ok := l.tags.Load(m.Name()); ok && existing.(*EntityModel) == m {
		l.tags.Delete(m.Name())
	}
}
