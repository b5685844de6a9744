package hostgroup

import (
	"context"
	"fmt"
	"sort"
	"sync"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/steelcutops/usergate/usergate/host"
)

type HostGroup struct {
	sync.RWMutex
	Hosts map[string]*host.Host
}

// NewHostGroup creates a new HostGroup with the given hosts.
func NewHostGroup(hosts ...*host.Host) *HostGroup {
	hostMap := make(map[string]*host.Host)
	for _, h := range hosts {
		hostMap[h.Hostname] = h
	}
	return &HostGroup{Hosts: hostMap}
}

// AddHost adds a host to the HostGroup.
func (hg *HostGroup) AddHost(h *host.Host) {
	hg.Lock()
	defer hg.Unlock()
	hg.Hosts[h.Hostname] = h
}

// RemoveHost removes a host from the HostGroup by its hostname.
func (hg *HostGroup) RemoveHost(hostname string) {
	hg.Lock()
	defer hg.Unlock()
	delete(hg.Hosts, hostname)
}

// HasHost checks if a host with the given hostname exists in the HostGroup.
func (hg *HostGroup) HasHost(hostname string) bool {
	hg.RLock()
	defer hg.RUnlock()
	_, exists := hg.Hosts[hostname]
	return exists
}

// Hostnames returns the hostnames in sorted order.
func (hg *HostGroup) Hostnames() []string {
	hg.RLock()
	defer hg.RUnlock()
	names := make([]string, 0, len(hg.Hosts))
	for name := range hg.Hosts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Process runs action once per host, at most maxConcurrency at a time, and
// returns every failure as a *multierror.Error.
func (hg *HostGroup) Process(ctx context.Context, maxConcurrency int, action func(ctx context.Context, h *host.Host) error) error {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	hg.RLock()
	hosts := make([]*host.Host, 0, len(hg.Hosts))
	for _, h := range hg.Hosts {
		hosts = append(hosts, h)
	}
	hg.RUnlock()

	sem := make(chan struct{}, maxConcurrency)
	errCh := make(chan error, len(hosts))
	var wg sync.WaitGroup

	for _, hst := range hosts {
		wg.Add(1)
		go func(h *host.Host) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := action(ctx, h); err != nil {
				errCh <- &HostError{Hostname: h.Hostname, Err: err}
			}
		}(hst)
	}

	wg.Wait()
	close(errCh)

	var result *multierror.Error
	for err := range errCh {
		result = multierror.Append(result, err)
	}

	if result != nil {
		for _, err := range result.Errors {
			logrus.WithField("error", err).Error("Host processing error")
		}
		return result
	}

	return nil
}

// HostError attaches a hostname to a failure.
type HostError struct {
	Hostname string
	Err      error
}

func (e *HostError) Error() string {
	return fmt.Sprintf("error while processing host %s: %v", e.Hostname, e.Err)
}

func (e *HostError) Unwrap() error {
	return e.Err
}
