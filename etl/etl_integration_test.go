package etl_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/parkingutility/revenue_backend/config"
	"github.com/parkingutility/revenue_backend/etl"
	"github.com/parkingutility/revenue_backend/models"
	"github.com/shopspring/decimal"
)

// Full promote/reject/reconcile flow against throwaway MySQL + Redis
// containers. Covers the file-level state machine: promotion flips
// processed_to_final, rejects leave staging pending, voided rows are
// untouched, a second run processes nothing, blended pole rows produce two
// facts, and payments reconciliation fills settle fields.
func TestEtlEndToEnd(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "parkrev_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	db := config.GetDB()
	if db == nil {
		t.Fatalf("db is nil after ConnectDatabaseWithRetry")
	}
	logger := config.GetLogger()

	// Seed the dimension graph: one facility/location, devices for each
	// source under test, charge codes, payment methods, settlement systems.
	for _, name := range []string{
		models.SettlementSystemWindcave,
		models.SettlementSystemPI,
		models.SettlementSystemIPS,
	} {
		if err := db.Create(&models.SettlementSystem{SystemName: name}).Error; err != nil {
			t.Fatalf("seed settlement system %s: %v", name, err)
		}
	}
	for _, brand := range []string{"Visa", "Mastercard", "Cash"} {
		if err := db.Create(&models.PaymentMethod{PaymentMethodBrand: brand}).Error; err != nil {
			t.Fatalf("seed payment method %s: %v", brand, err)
		}
	}

	facility := models.Facility{FacilityName: "Main Street Garage"}
	if err := db.Create(&facility).Error; err != nil {
		t.Fatalf("seed facility: %v", err)
	}
	location, err := models.GetOrCreateLocation(ctx, db, facility.ID, nil)
	if err != nil {
		t.Fatalf("GetOrCreateLocation: %v", err)
	}
	chargeCode, err := models.GetOrCreateChargeCode(ctx, db, location.ID, models.ProgramTypeStandard)
	if err != nil {
		t.Fatalf("GetOrCreateChargeCode: %v", err)
	}
	if chargeCode.ChargeCode <= 82000 {
		t.Fatalf("charge code %d not allocated above the 82000 block", chargeCode.ChargeCode)
	}

	assignStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, terminal := range []string{"WC-TERM-1", "PI-TERM-1", "P12345"} {
		device := models.Device{DeviceTerminalId: terminal, DeviceType: models.DeviceTypeFixedTerminal}
		if err := db.Create(&device).Error; err != nil {
			t.Fatalf("seed device %s: %v", terminal, err)
		}
		err := models.CreateDeviceAssignment(ctx, db, &models.DeviceAssignment{
			DeviceId:   device.ID,
			LocationId: location.ID,
			AssignDate: assignStart,
		})
		if err != nil {
			t.Fatalf("seed assignment for %s: %v", terminal, err)
		}
	}

	txnTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	settleDate := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	voided := 1

	// --- Windcave: one good row, one voided, one with an unknown device.
	const windcaveFile = 101
	windcaveRows := []models.WindcaveStaging{
		{SourceFileId: windcaveFile, Time: &txnTime, SettlementDate: &settleDate,
			Amount: decimal.RequireFromString("4.50"), CardType: "VISA",
			DeviceId: "WC-TERM-1", DpsTxnRef: "DPS-001"},
		{SourceFileId: windcaveFile, Time: &txnTime, SettlementDate: &settleDate,
			Amount: decimal.RequireFromString("2.00"), CardType: "VISA",
			DeviceId: "WC-TERM-1", DpsTxnRef: "DPS-002", Voided: &voided},
		{SourceFileId: windcaveFile, Time: &txnTime, SettlementDate: &settleDate,
			Amount: decimal.RequireFromString("3.25"), CardType: "VISA",
			DeviceId: "GHOST-1", DpsTxnRef: "DPS-003"},
	}
	for i := range windcaveRows {
		if err := db.Create(&windcaveRows[i]).Error; err != nil {
			t.Fatalf("seed windcave staging: %v", err)
		}
	}

	result, err := etl.Run(ctx, logger, etl.WindcaveAdapter{}, windcaveFile)
	if err != nil {
		t.Fatalf("windcave Run: %v", err)
	}
	if result.Promoted != 1 || result.Rejected != 1 {
		t.Fatalf("windcave run = %+v, want 1 promoted 1 rejected", result)
	}

	var good models.WindcaveStaging
	if err := db.First(&good, windcaveRows[0].ID).Error; err != nil {
		t.Fatalf("reload good staging row: %v", err)
	}
	if !good.ProcessedToFinal || good.TransactionId == nil {
		t.Fatalf("promoted staging row not flipped: processed=%v txid=%v", good.ProcessedToFinal, good.TransactionId)
	}
	var fact models.Transaction
	if err := db.First(&fact, *good.TransactionId).Error; err != nil {
		t.Fatalf("load promoted fact: %v", err)
	}
	if !fact.TransactionAmount.Equal(decimal.RequireFromString("4.50")) {
		t.Errorf("fact amount = %s, want 4.50", fact.TransactionAmount)
	}
	if fact.SettleDate == nil || fact.SettleAmount == nil {
		t.Errorf("windcave fact should arrive pre-settled, got %v/%v", fact.SettleDate, fact.SettleAmount)
	}
	if fact.ReferenceNumber != "DPS-001" {
		t.Errorf("fact reference = %q, want DPS-001", fact.ReferenceNumber)
	}

	// Voided row untouched by the pass, in both directions.
	var voidedRow models.WindcaveStaging
	if err := db.First(&voidedRow, windcaveRows[1].ID).Error; err != nil {
		t.Fatalf("reload voided staging row: %v", err)
	}
	if voidedRow.ProcessedToFinal || voidedRow.TransactionId != nil {
		t.Errorf("voided row was processed: %+v", voidedRow)
	}
	var voidedFacts int64
	db.Model(&models.Transaction{}).Where("staging_record_id = ?", voidedRow.ID).Count(&voidedFacts)
	var voidedRejects int64
	db.Model(&models.TransactionReject{}).Where("staging_record_id = ?", voidedRow.ID).Count(&voidedRejects)
	if voidedFacts != 0 || voidedRejects != 0 {
		t.Errorf("voided row produced %d facts, %d rejects; want none", voidedFacts, voidedRejects)
	}

	// Rejected row: reject fact recorded, staging left pending for retry.
	var reject models.TransactionReject
	if err := db.Where("staging_record_id = ?", windcaveRows[2].ID).First(&reject).Error; err != nil {
		t.Fatalf("load reject row: %v", err)
	}
	if reject.RejectReason != models.RejectDeviceNotFound {
		t.Errorf("reject reason = %s, want %s", reject.RejectReason, models.RejectDeviceNotFound)
	}
	if reject.Device != models.PlaceholderDeviceNotFound {
		t.Errorf("reject device column = %q, want placeholder", reject.Device)
	}
	var rejectedStaging models.WindcaveStaging
	if err := db.First(&rejectedStaging, windcaveRows[2].ID).Error; err != nil {
		t.Fatalf("reload rejected staging row: %v", err)
	}
	if rejectedStaging.ProcessedToFinal {
		t.Error("rejected staging row must stay pending for retry")
	}

	// Idempotence: the immediate second run has nothing to promote; the
	// still-unresolved row gains another reject.
	again, err := etl.Run(ctx, logger, etl.WindcaveAdapter{}, windcaveFile)
	if err != nil {
		t.Fatalf("second windcave Run: %v", err)
	}
	if again.Promoted != 0 {
		t.Errorf("second run promoted %d rows, want 0", again.Promoted)
	}
	var factCount int64
	db.Model(&models.Transaction{}).Where("staging_table = ?", models.WindcaveStaging{}.TableName()).Count(&factCount)
	if factCount != 1 {
		t.Errorf("windcave fact count after rerun = %d, want 1", factCount)
	}

	// --- Blended pole row: two facts from one staging row.
	const poleFile = 102
	coin := decimal.RequireFromString("1.50")
	card := decimal.RequireFromString("3.00")
	poleRow := models.IPSPoleStaging{
		SourceFileId: poleFile, TransactionDateTime: &txnTime,
		Pole: "P12345678", Terminal: "4401",
		TransactionType: "Coin & Card", TransactionNumber: "TXN-77",
		Coin: &coin, CreditCard: &card, CardType: "VISA",
	}
	if err := db.Create(&poleRow).Error; err != nil {
		t.Fatalf("seed pole staging: %v", err)
	}
	poleResult, err := etl.Run(ctx, logger, etl.IPSPoleAdapter{}, poleFile)
	if err != nil {
		t.Fatalf("pole Run: %v", err)
	}
	if poleResult.Promoted != 1 {
		t.Fatalf("pole run = %+v, want 1 promoted", poleResult)
	}
	var poleFacts []models.Transaction
	if err := db.Where("staging_table = ? AND staging_record_id = ?",
		models.IPSPoleStaging{}.TableName(), poleRow.ID).Order("id").Find(&poleFacts).Error; err != nil {
		t.Fatalf("load pole facts: %v", err)
	}
	if len(poleFacts) != 2 {
		t.Fatalf("blended row produced %d facts, want 2", len(poleFacts))
	}
	if !strings.HasSuffix(poleFacts[0].ReferenceNumber, "_COIN") ||
		!strings.HasSuffix(poleFacts[1].ReferenceNumber, "_CARD") {
		t.Errorf("pole references = %q, %q; want _COIN then _CARD",
			poleFacts[0].ReferenceNumber, poleFacts[1].ReferenceNumber)
	}
	var processedPole models.IPSPoleStaging
	if err := db.First(&processedPole, poleRow.ID).Error; err != nil {
		t.Fatalf("reload pole staging: %v", err)
	}
	if processedPole.TransactionId == nil || *processedPole.TransactionId != poleFacts[0].ID {
		t.Errorf("pole staging transaction_id should point at the coin fact")
	}

	// --- PI sales promoted unsettled, then reconciled by a payments file.
	const salesFile = 103
	const paymentsFile = 104
	saleDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	sale := models.PaymentsInsiderSalesStaging{
		SourceFileId: salesFile, CardBrand: "MC", CardNumber: "401288XXXXXX1881",
		TransactionAmount: decimal.RequireFromString("6.00"),
		TransactionDate:   &saleDate, TransactionTime: "12:30:00",
		AuthorizationCode: "AUTH77", TerminalId: "PI-TERM-1", Invoice: "INV-9",
	}
	if err := db.Create(&sale).Error; err != nil {
		t.Fatalf("seed sales staging: %v", err)
	}
	salesResult, err := etl.Run(ctx, logger, etl.PaymentsInsiderSalesAdapter{}, salesFile)
	if err != nil {
		t.Fatalf("sales Run: %v", err)
	}
	if salesResult.Promoted != 1 {
		t.Fatalf("sales run = %+v, want 1 promoted", salesResult)
	}
	var saleReload models.PaymentsInsiderSalesStaging
	if err := db.First(&saleReload, sale.ID).Error; err != nil {
		t.Fatalf("reload sales staging: %v", err)
	}
	if saleReload.TransactionId == nil {
		t.Fatal("promoted sales staging row has no transaction_id")
	}
	var saleFact models.Transaction
	if err := db.First(&saleFact, *saleReload.TransactionId).Error; err != nil {
		t.Fatalf("load sales fact: %v", err)
	}
	if saleFact.SettleDate != nil || saleFact.SettleAmount != nil {
		t.Fatalf("sales fact settled before payments arrived: %v/%v", saleFact.SettleDate, saleFact.SettleAmount)
	}

	paymentAmount := decimal.RequireFromString("5.85")
	payments := []models.PaymentsInsiderPaymentsStaging{
		{SourceFileId: paymentsFile, CardNumber: "401288XXXXXX1881",
			AuthorizationCode: "AUTH77", PaymentAmount: &paymentAmount, SettlementDate: &settleDate},
		{SourceFileId: paymentsFile, CardNumber: "511111XXXXXX9999",
			AuthorizationCode: "AUTH99", PaymentAmount: &paymentAmount, SettlementDate: &settleDate},
	}
	for i := range payments {
		if err := db.Create(&payments[i]).Error; err != nil {
			t.Fatalf("seed payments staging: %v", err)
		}
	}
	recResult, err := etl.ReconcilePaymentsInsider(ctx, logger, paymentsFile)
	if err != nil {
		t.Fatalf("ReconcilePaymentsInsider: %v", err)
	}
	if recResult.Matched != 1 || recResult.Unmatched != 1 {
		t.Fatalf("reconcile = %+v, want 1 matched 1 unmatched", recResult)
	}
	if err := db.First(&saleFact, saleFact.ID).Error; err != nil {
		t.Fatalf("reload sales fact: %v", err)
	}
	if saleFact.SettleDate == nil || saleFact.SettleAmount == nil {
		t.Fatalf("reconciled fact missing settle fields")
	}
	if !saleFact.SettleAmount.Equal(paymentAmount) {
		t.Errorf("settle amount = %s, want %s", saleFact.SettleAmount, paymentAmount)
	}
	var matchedPayment models.PaymentsInsiderPaymentsStaging
	if err := db.First(&matchedPayment, payments[0].ID).Error; err != nil {
		t.Fatalf("reload matched payment: %v", err)
	}
	if !matchedPayment.ProcessedToFinal {
		t.Error("matched payment row not flipped to processed")
	}
	var unmatchedPayment models.PaymentsInsiderPaymentsStaging
	if err := db.First(&unmatchedPayment, payments[1].ID).Error; err != nil {
		t.Fatalf("reload unmatched payment: %v", err)
	}
	if unmatchedPayment.ProcessedToFinal {
		t.Error("unmatched payment row must stay pending")
	}

	// Run log bookkeeping for the whole session.
	var completedRuns int64
	db.Model(&models.EtlRunLog{}).Where("status = ?", models.EtlRunStatusCompleted).Count(&completedRuns)
	if completedRuns < 5 {
		t.Errorf("completed run-log rows = %d, want at least 5", completedRuns)
	}
}

func TestFileLockSerializesRuns(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()
	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	config.ConnectRedisWithRetry()

	lock, err := etl.ObtainFileLock(ctx, 555)
	if err != nil {
		t.Fatalf("first ObtainFileLock: %v", err)
	}
	if _, err := etl.ObtainFileLock(ctx, 555); err != etl.ErrFileLocked {
		t.Errorf("second obtain = %v, want ErrFileLocked", err)
	}
	// A different file is unaffected.
	other, err := etl.ObtainFileLock(ctx, 556)
	if err != nil {
		t.Errorf("other file ObtainFileLock: %v", err)
	}
	etl.ReleaseFileLock(ctx, other)

	etl.ReleaseFileLock(ctx, lock)
	reacquired, err := etl.ObtainFileLock(ctx, 555)
	if err != nil {
		t.Errorf("reacquire after release: %v", err)
	}
	etl.ReleaseFileLock(ctx, reacquired)
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("parkrev-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("parkrev-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=parkrev_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
