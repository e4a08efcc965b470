package report

import "testing"

func TestTallyPercentTruncates(t *testing.T) {
	tally := NewComplianceTally()
	tally.IncrementOK("Casing")
	tally.IncrementOK("Casing")
	tally.IncrementNO("Casing")

	records := tally.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	// 2/3 is 66.67 percent; the fraction is dropped, not rounded.
	if records[0].PercentCompliance != 66 {
		t.Fatalf("percent = %d, want 66", records[0].PercentCompliance)
	}
}

func TestTallyEmptySection(t *testing.T) {
	tally := NewComplianceTally()
	if records := tally.Records(); len(records) != 0 {
		t.Fatalf("empty tally produced %v", records)
	}
}

func TestTallyZeroAnswered(t *testing.T) {
	if percentCompliance(0, 0) != 0 {
		t.Fatal("no answered items must report zero percent")
	}
}

func TestTallyKeepsFirstSeenOrder(t *testing.T) {
	tally := NewComplianceTally()
	tally.IncrementNO("Well Data")
	tally.IncrementOK("Cover Page")
	tally.IncrementOK("Well Data")

	records := tally.Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Section != "Well Data" || records[1].Section != "Cover Page" {
		t.Fatalf("order not preserved: %v", records)
	}
	if records[0].OK != 1 || records[0].NO != 1 || records[0].PercentCompliance != 50 {
		t.Fatalf("unexpected first record %+v", records[0])
	}
}
