// Package discovery advertises an acquisition daemon's control surface
// over mDNS so a monitoring or control client on the same network segment
// can find it without a hardcoded address.
package discovery

import (
	"context"
	"fmt"

	"github.com/brutella/dnssd"
)

// ServiceType is the DNS-SD service type a miil-acquire control surface
// advertises itself under.
const ServiceType = "_miil-ctl._tcp"

// Advertiser wraps one dnssd.Responder advertising a single service
// instance, stoppable via its context.
type Advertiser struct {
	responder dnssd.Responder
	cancel    context.CancelFunc
	done      chan struct{}
}

// Advertise registers instanceName.ServiceType.local on port, and starts
// responding to mDNS queries for it in a background goroutine. Call
// Shutdown to deregister and stop.
func Advertise(instanceName string, port int, text map[string]string) (*Advertiser, error) {
	cfg := dnssd.Config{
		Name: instanceName,
		Type: ServiceType,
		Port: port,
		Text: text,
	}
	service, err := dnssd.NewService(cfg)
	if err != nil {
		return nil, fmt.Errorf("discovery: building service descriptor: %w", err)
	}

	responder, err := dnssd.NewResponder()
	if err != nil {
		return nil, fmt.Errorf("discovery: creating mDNS responder: %w", err)
	}
	if _, err := responder.Add(service); err != nil {
		return nil, fmt.Errorf("discovery: registering service %q: %w", instanceName, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		// Respond returns when ctx is cancelled; a transport error here
		// is not actionable by the caller beyond having already stopped.
		_ = responder.Respond(ctx)
	}()

	return &Advertiser{responder: responder, cancel: cancel, done: done}, nil
}

// Shutdown deregisters the service and waits for the responder goroutine
// to exit.
func (a *Advertiser) Shutdown() {
	a.cancel()
	<-a.done
}
