package models

import (
	"log"

	"github.com/parkingutility/revenue_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Device{}, &Facility{}, &Space{}, &Location{}, &DeviceAssignment{},
		&ChargeCode{}, &PaymentMethod{}, &SettlementSystem{},
		&UploadedFile{}, &EtlRunLog{},
		&WindcaveStaging{},
		&PaymentsInsiderSalesStaging{}, &PaymentsInsiderPaymentsStaging{},
		&IPSCreditCardStaging{}, &IPSMobileStaging{}, &IPSCashStaging{}, &IPSPoleStaging{},
		&SQLCashStaging{},
		&Transaction{}, &TransactionReject{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
