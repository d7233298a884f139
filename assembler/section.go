package assembler

import "sort"

// Section names one of a module's output sections. Only the three
// conventional names get special layout treatment; anything else is
// accepted and placed after them in alphabetical order.
type Section string

const (
	SectionText Section = ".text"
	SectionData Section = ".data"
	SectionBSS  Section = ".bss"
)

// sectionOrder pins the deterministic layout order: .text first, then
// .data, then .bss. Unknown sections sort alphabetically after all three.
var sectionOrder = map[Section]int{
	SectionText: 0,
	SectionData: 1,
	SectionBSS:  2,
}

// sectionBuffer accumulates one section's output. .bss never appends to
// data — it only grows size, so reservations cost nothing in the object
// file itself.
type sectionBuffer struct {
	data []byte
	size int
}

func (s *sectionBuffer) length() int {
	if len(s.data) > 0 {
		return len(s.data)
	}
	return s.size
}

// orderedSections returns every section name the module has touched, in
// deterministic layout order.
func (m *Module) orderedSections() []Section {
	names := make([]Section, 0, len(m.sections))
	for name := range m.sections {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		oi, oki := sectionOrder[names[i]]
		oj, okj := sectionOrder[names[j]]
		if !oki {
			oi = len(sectionOrder)
		}
		if !okj {
			oj = len(sectionOrder)
		}
		if oi != oj {
			return oi < oj
		}
		return names[i] < names[j]
	})
	return names
}

// sectionBases computes each section's starting offset in the flattened
// final image under the deterministic layout order.
func (m *Module) sectionBases() map[Section]int {
	bases := make(map[Section]int)
	offset := 0
	for _, name := range m.orderedSections() {
		bases[name] = offset
		offset += m.sections[name].length()
	}
	return bases
}
