package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"call_center_app_go/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	failedLoginWindow    = 10 * time.Minute
	failedLoginThreshold = 5
	alertCooldown        = time.Hour
)

var loginAlertsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "login_alerts_total",
	Help: "Failed-login bursts that raised a security alert",
})

// LoginAlert is raised when one address keeps failing to log in
type LoginAlert struct {
	Timestamp time.Time
	IP        string
	Email     string
	Attempts  int
}

// LoginMonitor counts failed logins per client address and alerts staff on bursts
type LoginMonitor struct {
	mu       sync.Mutex
	cfg      *config.Config
	failures map[string][]time.Time
	alerted  map[string]time.Time
	now      func() time.Time
}

// Monitor is the global failed-login monitor
var Monitor *LoginMonitor

// InitLoginMonitor sets up the global monitor
func InitLoginMonitor(cfg *config.Config) {
	Monitor = NewLoginMonitor(cfg)
}

func NewLoginMonitor(cfg *config.Config) *LoginMonitor {
	return &LoginMonitor{
		cfg:      cfg,
		failures: make(map[string][]time.Time),
		alerted:  make(map[string]time.Time),
		now:      time.Now,
	}
}

// RecordFailure notes one failed login. Five failures from one address inside
// ten minutes raise an alert, at most once an hour per address. The raised alert
// is returned, or nil.
func (m *LoginMonitor) RecordFailure(ip, email string) *LoginAlert {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.pruneLocked(now)

	attempts := append(m.failures[ip], now)
	m.failures[ip] = attempts
	if len(attempts) < failedLoginThreshold {
		return nil
	}
	if last, ok := m.alerted[ip]; ok && now.Sub(last) < alertCooldown {
		return nil
	}
	m.alerted[ip] = now

	alert := &LoginAlert{Timestamp: now, IP: ip, Email: email, Attempts: len(attempts)}
	loginAlertsTotal.Inc()

	log.Printf("[SECURITY ALERT] %d failed logins from IP %s (last email %q)", alert.Attempts, ip, email)
	NotifyStaff(m.cfg, func(to []string) *Email {
		return &Email{
			To:      to,
			Subject: "Security alert: repeated failed logins",
			TextBody: fmt.Sprintf("%d failed logins from %s in the last %s.\nLast email tried: %s\nTime: %s\n",
				alert.Attempts, ip, failedLoginWindow, email, now.Format(time.RFC1123)),
		}
	})
	return alert
}

// pruneLocked drops attempts outside the window and expired cooldowns
func (m *LoginMonitor) pruneLocked(now time.Time) {
	windowStart := now.Add(-failedLoginWindow)
	for ip, attempts := range m.failures {
		kept := attempts[:0]
		for _, t := range attempts {
			if t.After(windowStart) {
				kept = append(kept, t)
			}
		}
		if len(kept) == 0 {
			delete(m.failures, ip)
		} else {
			m.failures[ip] = kept
		}
	}
	for ip, last := range m.alerted {
		if now.Sub(last) >= alertCooldown {
			delete(m.alerted, ip)
		}
	}
}
