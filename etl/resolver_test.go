package etl

import (
	"testing"
	"time"

	"github.com/parkingutility/revenue_backend/models"
	"github.com/shopspring/decimal"
)

func testCache() *DimensionCache {
	assignEnd := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	standard := models.Device{ID: 1, DeviceTerminalId: "TERM-A", DeviceType: models.DeviceTypeFixedTerminal}
	portable := models.Device{ID: 2, DeviceTerminalId: "PORT-B", DeviceType: models.DeviceTypePortableReader}
	unassigned := models.Device{ID: 3, DeviceTerminalId: "TERM-C", DeviceType: models.DeviceTypeFixedTerminal}
	orphan := models.Device{ID: 4, DeviceTerminalId: "TERM-D", DeviceType: models.DeviceTypeFixedTerminal}

	return &DimensionCache{
		devicesByTerminal: map[string]*models.Device{
			"TERM-A": &standard,
			"PORT-B": &portable,
			"TERM-C": &unassigned,
			"TERM-D": &orphan,
		},
		assignmentsByDevice: map[int][]models.DeviceAssignment{
			1: {{ID: 10, DeviceId: 1, LocationId: 100,
				AssignDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				EndDate:    &assignEnd}},
			2: {{ID: 11, DeviceId: 2, LocationId: 100,
				AssignDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}},
			// Device 4's assignment points at a location that no longer
			// exists in dim_location.
			4: {{ID: 12, DeviceId: 4, LocationId: 999,
				AssignDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}},
		},
		locationsById: map[int]*models.Location{
			100: {ID: 100, FacilityId: 1},
		},
		chargeCodesByKey: map[chargeCodeKey]*models.ChargeCode{
			{LocationId: 100, ProgramTypeId: models.ProgramTypeStandard}:       {ID: 20, ChargeCode: 82001, LocationId: 100, ProgramTypeId: 1},
			{LocationId: 100, ProgramTypeId: models.ProgramTypePortableReader}: {ID: 21, ChargeCode: 82002, LocationId: 100, ProgramTypeId: 2},
		},
		paymentMethodsByBrand: map[string]*models.PaymentMethod{
			BrandVisa: {ID: 30, PaymentMethodBrand: BrandVisa},
			BrandCash: {ID: 31, PaymentMethodBrand: BrandCash},
		},
		settlementSystemsByName: map[string]*models.SettlementSystem{
			models.SettlementSystemWindcave: {ID: 40, SystemName: models.SettlementSystemWindcave},
			models.SettlementSystemIPS:      {ID: 41, SystemName: models.SettlementSystemIPS},
		},
	}
}

func rawRow(terminal string, ts time.Time, brand string) RawRow {
	return RawRow{
		TerminalId:        terminal,
		TransactionDate:   ts,
		TransactionAmount: decimal.NewFromFloat(2.50),
		Brand:             brand,
		ReferenceNumber:   "REF-1",
	}
}

func TestResolveSuccess(t *testing.T) {
	r := NewResolver(testCache())
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	res := r.Resolve(rawRow("TERM-A", ts, BrandVisa), models.SettlementSystemWindcave)
	if !res.Resolved() {
		t.Fatalf("expected success, got reject %v", *res.Reject)
	}
	if res.Device.ID != 1 || res.Location.ID != 100 || res.ChargeCode.ID != 20 ||
		res.PaymentMethod.ID != 30 || res.SettlementSystem.ID != 40 {
		t.Errorf("unexpected resolution: %+v", res)
	}
	if res.ProgramTypeId != models.ProgramTypeStandard {
		t.Errorf("program type = %d, want %d", res.ProgramTypeId, models.ProgramTypeStandard)
	}
}

func TestResolvePortableReaderProgram(t *testing.T) {
	r := NewResolver(testCache())
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	res := r.Resolve(rawRow("PORT-B", ts, BrandVisa), models.SettlementSystemWindcave)
	if !res.Resolved() {
		t.Fatalf("expected success, got reject %v", *res.Reject)
	}
	if res.ProgramTypeId != models.ProgramTypePortableReader {
		t.Errorf("program type = %d, want %d", res.ProgramTypeId, models.ProgramTypePortableReader)
	}
	if res.ChargeCode.ID != 21 {
		t.Errorf("charge code id = %d, want portable-program code 21", res.ChargeCode.ID)
	}
}

func TestResolveRejectReasons(t *testing.T) {
	r := NewResolver(testCache())
	inWindow := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		row    RawRow
		system string
		want   models.RejectReason
	}{
		{
			name:   "unknown device",
			row:    rawRow("NOPE", inWindow, BrandVisa),
			system: models.SettlementSystemWindcave,
			want:   models.RejectDeviceNotFound,
		},
		{
			name:   "device known but never assigned",
			row:    rawRow("TERM-C", inWindow, BrandVisa),
			system: models.SettlementSystemWindcave,
			want:   models.RejectNoActiveAssignment,
		},
		{
			name:   "timestamp outside assignment window",
			row:    rawRow("TERM-A", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), BrandVisa),
			system: models.SettlementSystemWindcave,
			want:   models.RejectNoActiveAssignment,
		},
		{
			name:   "assignment location missing",
			row:    rawRow("TERM-D", inWindow, BrandVisa),
			system: models.SettlementSystemWindcave,
			want:   models.RejectLocationNotFound,
		},
		{
			name:   "payment method unknown",
			row:    rawRow("TERM-A", inWindow, "Obscurecard"),
			system: models.SettlementSystemWindcave,
			want:   models.RejectPaymentMethodNotFound,
		},
		{
			name:   "settlement system unknown",
			row:    rawRow("TERM-A", inWindow, BrandVisa),
			system: "Nonexistent",
			want:   models.RejectSettlementSystemNotFound,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := r.Resolve(c.row, c.system)
			if res.Resolved() {
				t.Fatalf("expected reject %v, got success", c.want)
			}
			if *res.Reject != c.want {
				t.Errorf("reject = %v, want %v", *res.Reject, c.want)
			}
		})
	}
}

// A device that exists but has no covering assignment outranks every other
// failure, and a missing device outranks everything downstream, even when
// several dimensions are unresolved at once.
func TestResolvePrecedence(t *testing.T) {
	r := NewResolver(testCache())
	inWindow := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	res := r.Resolve(rawRow("NOPE", inWindow, "Obscurecard"), "Nonexistent")
	if res.Resolved() || *res.Reject != models.RejectDeviceNotFound {
		t.Errorf("device + payment + system all missing: reject = %v, want %v",
			res.Reject, models.RejectDeviceNotFound)
	}

	res = r.Resolve(rawRow("TERM-C", inWindow, "Obscurecard"), "Nonexistent")
	if res.Resolved() || *res.Reject != models.RejectNoActiveAssignment {
		t.Errorf("assignment + payment + system all missing: reject = %v, want %v",
			res.Reject, models.RejectNoActiveAssignment)
	}
}

// Assignment intervals are half-open: a transaction exactly at end_date
// falls outside the assignment, one exactly at assign_date falls inside.
func TestResolveHalfOpenInterval(t *testing.T) {
	r := NewResolver(testCache())

	atStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	res := r.Resolve(rawRow("TERM-A", atStart, BrandVisa), models.SettlementSystemWindcave)
	if !res.Resolved() {
		t.Errorf("timestamp == assign_date should resolve, got reject %v", *res.Reject)
	}

	atEnd := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	res = r.Resolve(rawRow("TERM-A", atEnd, BrandVisa), models.SettlementSystemWindcave)
	if res.Resolved() {
		t.Fatal("timestamp == end_date should not resolve")
	}
	if *res.Reject != models.RejectNoActiveAssignment {
		t.Errorf("reject = %v, want %v", *res.Reject, models.RejectNoActiveAssignment)
	}

	justBeforeEnd := atEnd.Add(-time.Second)
	res = r.Resolve(rawRow("TERM-A", justBeforeEnd, BrandVisa), models.SettlementSystemWindcave)
	if !res.Resolved() {
		t.Errorf("timestamp just before end_date should resolve, got reject %v", *res.Reject)
	}
}

func TestResolveOpenEndedAssignment(t *testing.T) {
	r := NewResolver(testCache())
	farFuture := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	res := r.Resolve(rawRow("PORT-B", farFuture, BrandVisa), models.SettlementSystemWindcave)
	if !res.Resolved() {
		t.Errorf("nil end_date means still active, got reject %v", *res.Reject)
	}
}
