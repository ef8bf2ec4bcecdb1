// Package discovery advertises this server on the local network so
// clients on the same LAN segment can find a running canvas coordinator
// without being told its address (spec's single-LAN deployment
// assumption in §1 Non-goals: "no network reachability beyond a single
// local/LAN deployment").
package discovery

import (
	"fmt"
	"os"

	"github.com/hashicorp/mdns"
)

const serviceType = "_paintcoop._tcp"

// Advertiser wraps the running mDNS responder so it can be shut down
// cleanly on process exit.
type Advertiser struct {
	server *mdns.Server
}

// Advertise publishes this process's reliable port under serviceType.
// width and height ride along as TXT info so a browsing client can
// sanity-check it matches its own compiled-in expectation before it logs
// in (spec §6.5: the dimension pair is process-wide).
func Advertise(tcpPort, width, height int) (*Advertiser, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("discovery: could not resolve hostname: %w", err)
	}

	info := []string{fmt.Sprintf("w=%d", width), fmt.Sprintf("h=%d", height)}
	service, err := mdns.NewMDNSService(host, serviceType, "", "", tcpPort, nil, info)
	if err != nil {
		return nil, fmt.Errorf("discovery: failed to build mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("discovery: failed to start mDNS responder: %w", err)
	}
	return &Advertiser{server: server}, nil
}

// Shutdown stops the mDNS responder.
func (a *Advertiser) Shutdown() error {
	return a.server.Shutdown()
}

// Discover browses the LAN for other paintcoop coordinators, invoking
// found for each one seen within the lookup window. Intended for
// operator tooling, not required by any client.
func Discover(found func(addr string)) error {
	entries := make(chan *mdns.ServiceEntry, 8)
	go func() {
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			found(fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port))
		}
	}()
	return mdns.Lookup(serviceType, entries)
}
