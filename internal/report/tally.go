package report

// ComplianceTally accumulates per-section OK and NO counts. N/A answers are
// never tallied. Sections keep first-seen order.
type ComplianceTally struct {
	order  []string
	counts map[string]*sectionCount
}

type sectionCount struct {
	ok int
	no int
}

// ComplianceRecord is one tallied section with its truncated compliance
// percentage.
type ComplianceRecord struct {
	Section           string
	OK                int
	NO                int
	PercentCompliance int
}

// NewComplianceTally returns an empty tally.
func NewComplianceTally() *ComplianceTally {
	return &ComplianceTally{counts: make(map[string]*sectionCount)}
}

func (t *ComplianceTally) section(name string) *sectionCount {
	c, ok := t.counts[name]
	if !ok {
		c = &sectionCount{}
		t.counts[name] = c
		t.order = append(t.order, name)
	}
	return c
}

// IncrementOK counts one compliant answer for the section.
func (t *ComplianceTally) IncrementOK(section string) { t.section(section).ok++ }

// IncrementNO counts one non-compliant answer for the section.
func (t *ComplianceTally) IncrementNO(section string) { t.section(section).no++ }

// Records returns one record per tallied section in first-seen order. The
// percentage is ok over answered, scaled to 100 and truncated toward zero; a
// section with no answered items reports zero.
func (t *ComplianceTally) Records() []ComplianceRecord {
	out := make([]ComplianceRecord, 0, len(t.order))
	for _, section := range t.order {
		c := t.counts[section]
		out = append(out, ComplianceRecord{
			Section:           section,
			OK:                c.ok,
			NO:                c.no,
			PercentCompliance: percentCompliance(c.ok, c.no),
		})
	}
	return out
}

func percentCompliance(ok, no int) int {
	total := ok + no
	if total == 0 {
		return 0
	}
	return int(float64(ok) / float64(total) * 100)
}
