package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/parkingutility/revenue_backend/config"
	"github.com/parkingutility/revenue_backend/models"
	"gorm.io/gorm"
)

type chargeCodeKey struct {
	LocationId    int
	ProgramTypeId int
}

// DimensionCache holds every dimension table in memory for the duration of
// one promotion pass, so per-row resolution never touches the database.
// Dimensions are admin-owned and small (hundreds of rows), staging files
// run to tens of thousands.
type DimensionCache struct {
	devicesByTerminal       map[string]*models.Device
	assignmentsByDevice     map[int][]models.DeviceAssignment
	locationsById           map[int]*models.Location
	chargeCodesByKey        map[chargeCodeKey]*models.ChargeCode
	paymentMethodsByBrand   map[string]*models.PaymentMethod
	settlementSystemsByName map[string]*models.SettlementSystem
	loadedAt                time.Time
}

// LoadDimensionCache reads all dimension tables through tx so the cache
// sees the same snapshot the promotion transaction does.
func LoadDimensionCache(ctx context.Context, tx *gorm.DB) (*DimensionCache, error) {
	cache := &DimensionCache{
		devicesByTerminal:       map[string]*models.Device{},
		assignmentsByDevice:     map[int][]models.DeviceAssignment{},
		locationsById:           map[int]*models.Location{},
		chargeCodesByKey:        map[chargeCodeKey]*models.ChargeCode{},
		paymentMethodsByBrand:   map[string]*models.PaymentMethod{},
		settlementSystemsByName: map[string]*models.SettlementSystem{},
		loadedAt:                time.Now().UTC(),
	}

	var devices []models.Device
	if err := tx.WithContext(ctx).Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("load dim_device: %w", err)
	}
	for i := range devices {
		cache.devicesByTerminal[devices[i].DeviceTerminalId] = &devices[i]
	}

	var assignments []models.DeviceAssignment
	if err := tx.WithContext(ctx).Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("load fact_device_assignment: %w", err)
	}
	for _, a := range assignments {
		cache.assignmentsByDevice[a.DeviceId] = append(cache.assignmentsByDevice[a.DeviceId], a)
	}

	var locations []models.Location
	if err := tx.WithContext(ctx).Find(&locations).Error; err != nil {
		return nil, fmt.Errorf("load dim_location: %w", err)
	}
	for i := range locations {
		cache.locationsById[locations[i].ID] = &locations[i]
	}

	var chargeCodes []models.ChargeCode
	if err := tx.WithContext(ctx).Find(&chargeCodes).Error; err != nil {
		return nil, fmt.Errorf("load dim_charge_code: %w", err)
	}
	for i := range chargeCodes {
		key := chargeCodeKey{LocationId: chargeCodes[i].LocationId, ProgramTypeId: chargeCodes[i].ProgramTypeId}
		cache.chargeCodesByKey[key] = &chargeCodes[i]
	}

	var paymentMethods []models.PaymentMethod
	if err := tx.WithContext(ctx).Find(&paymentMethods).Error; err != nil {
		return nil, fmt.Errorf("load dim_payment_method: %w", err)
	}
	for i := range paymentMethods {
		cache.paymentMethodsByBrand[paymentMethods[i].PaymentMethodBrand] = &paymentMethods[i]
	}

	var settlementSystems []models.SettlementSystem
	if err := tx.WithContext(ctx).Find(&settlementSystems).Error; err != nil {
		return nil, fmt.Errorf("load dim_settlement_system: %w", err)
	}
	for i := range settlementSystems {
		cache.settlementSystemsByName[settlementSystems[i].SystemName] = &settlementSystems[i]
	}

	return cache, nil
}

func (c *DimensionCache) DeviceByTerminal(terminalId string) *models.Device {
	return c.devicesByTerminal[terminalId]
}

// AssignmentCovering returns the device's assignment whose half-open
// interval contains ts, if any. The no-overlap invariant on assignments
// guarantees at most one.
func (c *DimensionCache) AssignmentCovering(deviceId int, ts time.Time) *models.DeviceAssignment {
	for i := range c.assignmentsByDevice[deviceId] {
		a := &c.assignmentsByDevice[deviceId][i]
		if a.Covers(ts) {
			return a
		}
	}
	return nil
}

func (c *DimensionCache) LocationById(id int) *models.Location {
	return c.locationsById[id]
}

func (c *DimensionCache) ChargeCodeFor(locationId int, programTypeId int) *models.ChargeCode {
	return c.chargeCodesByKey[chargeCodeKey{LocationId: locationId, ProgramTypeId: programTypeId}]
}

func (c *DimensionCache) PaymentMethodByBrand(brand string) *models.PaymentMethod {
	return c.paymentMethodsByBrand[brand]
}

func (c *DimensionCache) SettlementSystemByName(name string) *models.SettlementSystem {
	return c.settlementSystemsByName[name]
}

// CacheStats is the ops-visibility snapshot mirrored to Redis per run.
type CacheStats struct {
	Devices           int       `json:"devices"`
	DeviceAssignments int       `json:"device_assignments"`
	Locations         int       `json:"locations"`
	ChargeCodes       int       `json:"charge_codes"`
	PaymentMethods    int       `json:"payment_methods"`
	SettlementSystems int       `json:"settlement_systems"`
	LoadedAt          time.Time `json:"loaded_at"`
}

func (c *DimensionCache) Stats() CacheStats {
	assignments := 0
	for _, list := range c.assignmentsByDevice {
		assignments += len(list)
	}
	return CacheStats{
		Devices:           len(c.devicesByTerminal),
		DeviceAssignments: assignments,
		Locations:         len(c.locationsById),
		ChargeCodes:       len(c.chargeCodesByKey),
		PaymentMethods:    len(c.paymentMethodsByBrand),
		SettlementSystems: len(c.settlementSystemsByName),
		LoadedAt:          c.loadedAt,
	}
}

// CacheStatsForRun fetches the snapshot a completed run published for its
// correlation id. found is false when the key expired or redis is disabled.
func CacheStatsForRun(correlationId string) (*CacheStats, bool, error) {
	var stats CacheStats
	found, err := config.GetRedisObject(fmt.Sprintf("etl:cache:%s", correlationId), &stats)
	if err != nil || !found {
		return nil, false, err
	}
	return &stats, true, nil
}

// PublishStats mirrors the cache snapshot to Redis keyed by the run's
// correlation id. Best effort: a Redis outage never fails a run.
func (c *DimensionCache) PublishStats(correlationId string) {
	if config.GetRedisDB() == nil {
		return
	}
	key := fmt.Sprintf("etl:cache:%s", correlationId)
	if err := config.SetRedisObject(key, c.Stats(), 24*time.Hour); err != nil {
		config.LogError(config.GetLogger(), "cache.go", "PublishStats", "SetRedisObject", key, err)
	}
}
