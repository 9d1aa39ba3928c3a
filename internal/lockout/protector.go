package lockout

import "time"

// Guard is the surface the HTTP service consumes: dual-keyed brute-force
// protection over client IPs and usernames. Protector is the canonical
// implementation; decorators (instrumentation) wrap it.
type Guard interface {
	Allowed(ip, username string) (bool, error)
	RecordFailure(ip, username string) (ipStatus, userStatus Status, err error)
	Reset(ip, username string) error
	ResetIP(ip string) error
	ResetUser(username string) error
	IPStatus(ip string) (Status, error)
	UserStatus(username string) (Status, error)
	LockedIPs() []string
	LockedUsers() []string
	Sweep() int
	Close()
}

// ProtectorConfig pairs the per-IP and per-username policies. The IP policy
// is lenient because many users may share an address; the username policy is
// strict because credential stuffing targets individual accounts.
type ProtectorConfig struct {
	IP       Config
	Username Config
}

// DefaultProtectorConfig returns the stock dual policy: 20 attempts per IP
// over 5 minutes, 5 attempts per username over 10 minutes.
func DefaultProtectorConfig() ProtectorConfig {
	return ProtectorConfig{
		IP: Config{
			MaxAttempts:   20,
			Window:        5 * time.Minute,
			Lockout:       5 * time.Minute,
			RetentionIdle: 10 * time.Minute,
		},
		Username: Config{
			MaxAttempts:   5,
			Window:        10 * time.Minute,
			Lockout:       10 * time.Minute,
			RetentionIdle: 20 * time.Minute,
		},
	}
}

// Protector runs two independent Limiters, one keyed by client IP and one by
// username. A login attempt is allowed only when neither key is locked.
type Protector struct {
	ip   *Limiter
	user *Limiter
}

var _ Guard = (*Protector)(nil)

// NewProtector validates both policies and returns a ready Protector.
// Options (such as WithClock) apply to both limiters.
func NewProtector(cfg ProtectorConfig, opts ...Option) (*Protector, error) {
	ip, err := New(cfg.IP, opts...)
	if err != nil {
		return nil, err
	}
	user, err := New(cfg.Username, opts...)
	if err != nil {
		ip.Close()
		return nil, err
	}
	return &Protector{ip: ip, user: user}, nil
}

// Allowed reports whether a login attempt from ip for username may proceed.
func (p *Protector) Allowed(ip, username string) (bool, error) {
	ipAllowed, err := p.ip.IsAllowed(ip)
	if err != nil {
		return false, err
	}
	userAllowed, err := p.user.IsAllowed(username)
	if err != nil {
		return false, err
	}
	return ipAllowed && userAllowed, nil
}

// RecordFailure records a failed attempt against both keys and returns the
// post-update status of each.
func (p *Protector) RecordFailure(ip, username string) (Status, Status, error) {
	ipStatus, err := p.ip.RecordFailure(ip)
	if err != nil {
		return Status{}, Status{}, err
	}
	userStatus, err := p.user.RecordFailure(username)
	if err != nil {
		return Status{}, Status{}, err
	}
	return ipStatus, userStatus, nil
}

// Reset clears tracking state for both keys, typically after a successful
// login.
func (p *Protector) Reset(ip, username string) error {
	if err := p.ip.Reset(ip); err != nil {
		return err
	}
	return p.user.Reset(username)
}

// ResetIP clears tracking state for a single IP.
func (p *Protector) ResetIP(ip string) error {
	return p.ip.Reset(ip)
}

// ResetUser clears tracking state for a single username.
func (p *Protector) ResetUser(username string) error {
	return p.user.Reset(username)
}

// IPStatus returns the snapshot for an IP.
func (p *Protector) IPStatus(ip string) (Status, error) {
	return p.ip.Status(ip)
}

// UserStatus returns the snapshot for a username.
func (p *Protector) UserStatus(username string) (Status, error) {
	return p.user.Status(username)
}

// LockedIPs lists IPs currently under an active lockout.
func (p *Protector) LockedIPs() []string {
	return p.ip.LockedIdentifiers()
}

// LockedUsers lists usernames currently under an active lockout.
func (p *Protector) LockedUsers() []string {
	return p.user.LockedIdentifiers()
}

// Sweep runs one eviction pass over both limiters and returns the total
// number of identifiers removed.
func (p *Protector) Sweep() int {
	return p.ip.Sweep() + p.user.Sweep()
}

// Close stops both background sweepers. Idempotent.
func (p *Protector) Close() {
	p.ip.Close()
	p.user.Close()
}
