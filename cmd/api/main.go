package main

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	httpadp "loanledger/internal/adapter/http"
	"loanledger/internal/adapter/middleware"
	"loanledger/internal/adapter/repository/mysql"
	"loanledger/internal/config"
	"loanledger/internal/domain/collateral"
	"loanledger/internal/domain/fee"
	"loanledger/internal/domain/funds"
	"loanledger/internal/domain/loan"
	"loanledger/internal/domain/position"
	"loanledger/internal/infrastructure/cache"
	"loanledger/internal/infrastructure/db"
	"loanledger/internal/usecase/ledger"
	"loanledger/internal/usecase/settlement"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatal(err)
	}
	if err := gdb.AutoMigrate(
		&loan.Loan{}, &loan.NoteReceipt{},
		&fee.Entry{}, &fee.AffiliateSplit{},
		&funds.Account{}, &collateral.Bundle{}, &position.Position{},
	); err != nil {
		log.Fatal(err)
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatal(err)
	}

	schedule := fee.NewStaticSchedule(map[string]int64{
		fee.KindLenderInterest:  cfg.LenderInterestFeeCapBps,
		fee.KindLenderPrincipal: cfg.LenderPrincipalFeeCap,
	})
	if err := schedule.SetRate(fee.KindLenderInterest, cfg.LenderInterestFeeBps); err != nil {
		log.Fatal(err)
	}
	if err := schedule.SetRate(fee.KindLenderPrincipal, cfg.LenderPrincipalFeeBps); err != nil {
		log.Fatal(err)
	}

	engine := ledger.NewEngine(schedule, cfg.ProtocolAccount, cfg.VaultAccount,
		time.Duration(cfg.GracePeriodSecs)*time.Second)
	loanCache := cache.NewLoanCache(rdb, time.Duration(cfg.LoanCacheTTLSecs)*time.Second)
	uc := settlement.NewUsecase(
		mysql.NewLoanRepository(gdb),
		mysql.NewFeeRepository(gdb),
		mysql.NewGormUoW(gdb),
		engine,
		loanCache,
	)

	h := httpadp.NewHandler()
	loans := httpadp.NewLoanHandler(uc)
	settle := httpadp.NewSettlementHandler(uc)
	fees := httpadp.NewFeeHandler(uc)
	verify := httpadp.NewVerifyHandler()

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover())
	e.Use(middleware.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second))

	e.GET("/health", h.Health)

	e.POST("/loans", loans.CreateLoan)
	e.GET("/loans/:loan_id", loans.GetLoan)
	e.GET("/loans/:loan_id/receipt", loans.GetReceipt)
	e.GET("/loans/:loan_id/effective-rate", loans.EffectiveRate)
	e.GET("/interest", loans.ProratedInterest)

	e.POST("/loans/:loan_id/repay", settle.Repay)
	e.POST("/loans/:loan_id/force-repay", settle.ForceRepay)
	e.POST("/loans/:loan_id/redeem", settle.RedeemNote)
	e.POST("/loans/:loan_id/claim", settle.Claim)
	e.POST("/loans/:loan_id/note/transfer", settle.TransferNote)

	e.GET("/fees", fees.Withdrawable)
	e.POST("/fees/withdraw", fees.Withdraw)
	e.POST("/affiliates", fees.SetAffiliateSplit)

	e.POST("/verify", verify.Verify)

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
