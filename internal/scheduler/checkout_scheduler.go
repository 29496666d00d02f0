package scheduler

import (
	"time"

	"github.com/ikkim/udonggeum-checkout/config"
	"github.com/ikkim/udonggeum-checkout/internal/app/service"
	"github.com/ikkim/udonggeum-checkout/pkg/logger"
	"github.com/robfig/cron/v3"
)

// CheckoutScheduler 쿠폰 만료와 오래된 주문서 정리를 주기적으로 실행
type CheckoutScheduler struct {
	cron              *cron.Cron
	couponService     service.CouponService
	settlementService service.SettlementService
	cfg               config.SchedulerConfig
}

// NewCheckoutScheduler 스케줄러 생성
func NewCheckoutScheduler(
	couponService service.CouponService,
	settlementService service.SettlementService,
	cfg config.SchedulerConfig,
) *CheckoutScheduler {
	return &CheckoutScheduler{
		cron:              cron.New(),
		couponService:     couponService,
		settlementService: settlementService,
		cfg:               cfg,
	}
}

// Start 스케줄러 시작
func (s *CheckoutScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.CouponExpiryCron, s.expireCoupons); err != nil {
		logger.Error("Failed to add cron job for coupon expiry", err, map[string]interface{}{
			"spec": s.cfg.CouponExpiryCron,
		})
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.SettlementPruneCron, s.pruneSettlements); err != nil {
		logger.Error("Failed to add cron job for settlement pruning", err, map[string]interface{}{
			"spec": s.cfg.SettlementPruneCron,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Checkout scheduler started", map[string]interface{}{
		"coupon_expiry":    s.cfg.CouponExpiryCron,
		"settlement_prune": s.cfg.SettlementPruneCron,
	})
	return nil
}

// Stop 스케줄러 중지. 실행 중인 작업이 끝날 때까지 기다림
func (s *CheckoutScheduler) Stop() {
	logger.Info("Stopping checkout scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Checkout scheduler stopped")
}

func (s *CheckoutScheduler) expireCoupons() {
	expired, err := s.couponService.ExpireOverdue()
	if err != nil {
		logger.Error("Failed to expire coupons from scheduler", err)
		return
	}
	logger.Info("Expired overdue coupons", map[string]interface{}{
		"count": expired,
	})
}

func (s *CheckoutScheduler) pruneSettlements() {
	pruned := s.settlementService.PruneOlderThan(s.maxAge())
	if pruned > 0 {
		logger.Info("Pruned abandoned settlements", map[string]interface{}{
			"count": pruned,
		})
	}
}

func (s *CheckoutScheduler) maxAge() time.Duration {
	if s.cfg.SettlementMaxAge <= 0 {
		return 30 * time.Minute
	}
	return s.cfg.SettlementMaxAge
}
