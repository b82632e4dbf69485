package etl

import (
	"github.com/parkingutility/revenue_backend/models"
)

// Resolution is the outcome of dimension resolution for one RawRow.
// Either Reject is nil and all five ids (plus the program type) are set, or
// Reject names the single first-failing reason and the ids resolved before
// the failure carry best-effort values for the reject row.
type Resolution struct {
	Device           *models.Device
	Assignment       *models.DeviceAssignment
	Location         *models.Location
	ChargeCode       *models.ChargeCode
	PaymentMethod    *models.PaymentMethod
	SettlementSystem *models.SettlementSystem
	ProgramTypeId    int

	Reject *models.RejectReason
}

func (r *Resolution) Resolved() bool { return r.Reject == nil }

// Resolver derives the five dimension references for a RawRow from the
// per-run cache. Failures are data outcomes, never errors: the first
// validator that fails decides the reject reason and later validators do
// not run.
type Resolver struct {
	cache      *DimensionCache
	validators []validator
}

type validator struct {
	name  string
	check func(row RawRow, systemName string, res *Resolution) *models.RejectReason
}

func NewResolver(cache *DimensionCache) *Resolver {
	r := &Resolver{cache: cache}
	// Fixed precedence: a device that exists but has no assignment covering
	// the timestamp outranks a missing device, which outranks everything
	// downstream of it.
	r.validators = []validator{
		{name: "active_assignment", check: r.checkActiveAssignment},
		{name: "device", check: r.checkDevice},
		{name: "location", check: r.checkLocation},
		{name: "charge_code", check: r.checkChargeCode},
		{name: "payment_method", check: r.checkPaymentMethod},
		{name: "settlement_system", check: r.checkSettlementSystem},
	}
	return r
}

// Resolve runs the validators in precedence order and returns the first
// failure, or the fully resolved tuple.
func (r *Resolver) Resolve(row RawRow, systemName string) Resolution {
	res := Resolution{ProgramTypeId: models.ProgramTypeStandard}
	for _, v := range r.validators {
		if reason := v.check(row, systemName, &res); reason != nil {
			res.Reject = reason
			return res
		}
	}
	if res.Device == nil || res.Location == nil || res.ChargeCode == nil ||
		res.PaymentMethod == nil || res.SettlementSystem == nil {
		// Should be unreachable; reaching it means a validator gap.
		reason := models.RejectUnknown
		res.Reject = &reason
	}
	return res
}

// checkActiveAssignment fails only for a known device with no assignment
// interval containing the timestamp. An unknown device falls through to
// the device validator so the recorded reason stays specific.
func (r *Resolver) checkActiveAssignment(row RawRow, _ string, res *Resolution) *models.RejectReason {
	device := r.cache.DeviceByTerminal(row.TerminalId)
	if device == nil {
		return nil
	}
	res.Device = device
	if device.DeviceType == models.DeviceTypePortableReader {
		res.ProgramTypeId = models.ProgramTypePortableReader
	}
	assignment := r.cache.AssignmentCovering(device.ID, row.TransactionDate)
	if assignment == nil {
		reason := models.RejectNoActiveAssignment
		return &reason
	}
	res.Assignment = assignment
	return nil
}

func (r *Resolver) checkDevice(_ RawRow, _ string, res *Resolution) *models.RejectReason {
	if res.Device == nil {
		reason := models.RejectDeviceNotFound
		return &reason
	}
	return nil
}

func (r *Resolver) checkLocation(_ RawRow, _ string, res *Resolution) *models.RejectReason {
	location := r.cache.LocationById(res.Assignment.LocationId)
	if location == nil {
		reason := models.RejectLocationNotFound
		return &reason
	}
	res.Location = location
	return nil
}

func (r *Resolver) checkChargeCode(_ RawRow, _ string, res *Resolution) *models.RejectReason {
	chargeCode := r.cache.ChargeCodeFor(res.Location.ID, res.ProgramTypeId)
	if chargeCode == nil {
		reason := models.RejectChargeCodeNotFound
		return &reason
	}
	res.ChargeCode = chargeCode
	return nil
}

func (r *Resolver) checkPaymentMethod(row RawRow, _ string, res *Resolution) *models.RejectReason {
	method := r.cache.PaymentMethodByBrand(row.Brand)
	if method == nil {
		reason := models.RejectPaymentMethodNotFound
		return &reason
	}
	res.PaymentMethod = method
	return nil
}

func (r *Resolver) checkSettlementSystem(_ RawRow, systemName string, res *Resolution) *models.RejectReason {
	system := r.cache.SettlementSystemByName(systemName)
	if system == nil {
		reason := models.RejectSettlementSystemNotFound
		return &reason
	}
	res.SettlementSystem = system
	return nil
}
