package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/miekg/dns"
	"github.com/ruteri/contract-instance-registry/interfaces"
)

// DefaultDNSResolver is the resolver queried for DNSLink records when no
// resolver is configured for the backend.
const DefaultDNSResolver = "127.0.0.53:53"

const dnslinkPrefix = "dnslink=/ipfs/"

// DNSLinkBackend implements a read-only storage backend resolving dnslink://
// pointers. The pointer's domain is looked up as a TXT record at
// _dnslink.<domain>; the record names an IPFS CID and the content itself is
// fetched through the configured IPFS backend.
type DNSLinkBackend struct {
	domain   string
	resolver string
	ipfs     interfaces.StorageBackend
	log      *slog.Logger
}

// NewDNSLinkBackend creates a new DNSLink storage backend for domain,
// delegating content retrieval to ipfs. An empty resolver selects
// DefaultDNSResolver.
func NewDNSLinkBackend(domain, resolver string, ipfs interfaces.StorageBackend, log *slog.Logger) (*DNSLinkBackend, error) {
	if ipfs == nil {
		return nil, errors.New("dnslink backend requires an IPFS backend for content retrieval")
	}
	if resolver == "" {
		resolver = DefaultDNSResolver
	}

	return &DNSLinkBackend{
		domain:   domain,
		resolver: resolver,
		ipfs:     ipfs,
		log:      log,
	}, nil
}

// Fetch resolves the pointer's domain to a CID through its DNSLink TXT
// record and fetches the content from IPFS.
func (b *DNSLinkBackend) Fetch(ctx context.Context, loc interfaces.MetadataLocation) ([]byte, error) {
	domain := loc.Host
	if domain == "" {
		return nil, fmt.Errorf("%w: pointer %q names no domain", interfaces.ErrInvalidLocationURI, loc.Raw)
	}

	cid, err := b.resolveCID(domain)
	if err != nil {
		return nil, err
	}

	b.log.Debug("Resolved DNSLink record",
		slog.String("domain", domain),
		slog.String("cid", cid))

	ipfsLoc, err := interfaces.ParseMetadataLocation("ipfs://" + cid)
	if err != nil {
		return nil, fmt.Errorf("dnslink record for %s names an invalid CID: %w", domain, err)
	}

	return b.ipfs.Fetch(ctx, ipfsLoc)
}

// Store is not implemented for this read-only backend.
func (b *DNSLinkBackend) Store(ctx context.Context, data []byte) (interfaces.MetadataLocation, error) {
	return interfaces.MetadataLocation{}, interfaces.ErrReadOnlyBackend
}

// Available checks that the backend's own domain resolves to a DNSLink
// record and that the delegate IPFS backend is up.
func (b *DNSLinkBackend) Available(ctx context.Context) bool {
	if _, err := b.resolveCID(b.domain); err != nil {
		b.log.Debug("DNSLink backend unavailable",
			slog.String("domain", b.domain),
			"err", err)
		return false
	}
	return b.ipfs.Available(ctx)
}

// Name returns a unique identifier for this storage backend.
func (b *DNSLinkBackend) Name() string {
	return fmt.Sprintf("dnslink-%s", b.domain)
}

// Scheme returns the pointer scheme this backend resolves.
func (b *DNSLinkBackend) Scheme() string {
	return "dnslink"
}

// LocationURI returns the URI that identifies this storage backend.
func (b *DNSLinkBackend) LocationURI() string {
	return fmt.Sprintf("dnslink://%s", b.domain)
}

// resolveCID queries the TXT record at _dnslink.<domain> and extracts the
// IPFS CID it names.
func (b *DNSLinkBackend) resolveCID(domain string) (string, error) {
	m1 := new(dns.Msg)
	m1.Id = dns.Id()
	m1.RecursionDesired = true
	m1.Question = make([]dns.Question, 1)
	m1.Question[0] = dns.Question{Name: dns.Fqdn("_dnslink." + domain), Qtype: dns.TypeTXT, Qclass: dns.ClassINET}

	c := new(dns.Client)
	in, _, err := c.Exchange(m1, b.resolver)
	if err != nil {
		return "", fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	if in.Rcode == dns.RcodeNameError {
		return "", interfaces.ErrContentNotFound
	}
	if in.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("dns query for %s failed: %s", domain, dns.RcodeToString[in.Rcode])
	}

	// TXT payloads longer than 255 bytes arrive chunked; join before parsing.
	for _, answer := range in.Answer {
		txt, ok := answer.(*dns.TXT)
		if !ok {
			continue
		}
		record := strings.Join(txt.Txt, "")
		if strings.HasPrefix(record, dnslinkPrefix) {
			cid := strings.TrimPrefix(record, dnslinkPrefix)
			if cid == "" {
				return "", fmt.Errorf("empty dnslink record for %s", domain)
			}
			return cid, nil
		}
	}

	return "", interfaces.ErrContentNotFound
}
