package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"plantguard/internal/repository"
)

const healthPingTimeout = 2 * time.Second

// HealthStatus is the result of one store check.
type HealthStatus struct {
	Store     string
	Connected bool
}

// HealthService reports whether the persistence store answers.
type HealthService struct {
	pinger repository.Pinger
}

func NewHealthService(pinger repository.Pinger) *HealthService {
	if pinger == nil {
		panic("Pinger cannot be nil for HealthService")
	}
	return &HealthService{pinger: pinger}
}

// Check pings the store with a short timeout.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()

	status := HealthStatus{Store: s.pinger.Name(), Connected: true}
	if err := s.pinger.Ping(ctx); err != nil {
		logrus.WithError(err).WithField("store", status.Store).Warn("Health check: store unreachable")
		status.Connected = false
	}
	return status
}
