package holded

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/solucions-socials/platform/pkg/common/config"
	"github.com/solucions-socials/platform/pkg/common/logger"
)

type Options struct {
	PageSize            int
	MaxPages            int
	OnPageFailure       PageFailureMode
	CollectMode         CollectMode
	ContactDetailLookup bool
	RetryAttempts       int
	Cache               ContactCache
	Now                 func() time.Time
}

// OptionsFromConfig maps service configuration onto client options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		PageSize:            cfg.HoldedPageSize,
		MaxPages:            cfg.HoldedMaxPages,
		OnPageFailure:       ParsePageFailureMode(cfg.HoldedPageFailureMode),
		CollectMode:         ParseCollectMode(cfg.HoldedCollectMode),
		ContactDetailLookup: cfg.HoldedContactDetailLookup,
		RetryAttempts:       cfg.HoldedRetryAttempts,
	}
}

// Service exposes the Holded operations of a single tenant.
type Service struct {
	company string
	client  *Client
	opts    Options
}

func NewService(company string, client *Client, opts Options) *Service {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.CollectMode == "" {
		opts.CollectMode = CollectSingle
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{company: company, client: client, opts: opts}
}

func (s *Service) Company() string {
	return s.company
}

// TestConnection performs the cheapest authenticated call available.
func (s *Service) TestConnection(ctx context.Context) error {
	var contacts []Contact
	q := url.Values{"page": {"1"}, "limit": {"1"}}
	if err := s.client.Get(ctx, "/contacts", q, &contacts); err != nil {
		return err
	}
	return nil
}

// PurchaseQuery holds the filters of GET /documents/purchase.
type PurchaseQuery struct {
	Page      int
	Limit     int
	Sort      string
	Paid      *bool
	Start     *time.Time
	End       *time.Time
	ContactID string
	Status    *int
}

func (q PurchaseQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Paid != nil {
		if *q.Paid {
			v.Set("paid", "1")
		} else {
			v.Set("paid", "0")
		}
	}
	if q.Start != nil {
		v.Set("starttmp", strconv.FormatInt(q.Start.Unix(), 10))
	}
	if q.End != nil {
		v.Set("endtmp", strconv.FormatInt(q.End.Unix(), 10))
	}
	if q.ContactID != "" {
		v.Set("contactid", q.ContactID)
	}
	if q.Status != nil {
		v.Set("status", strconv.Itoa(*q.Status))
	}
	return v
}

func (s *Service) Purchases(ctx context.Context, q PurchaseQuery) ([]Purchase, error) {
	var purchases []Purchase
	if err := s.client.Get(ctx, "/documents/purchase", q.values(), &purchases); err != nil {
		return nil, err
	}
	return purchases, nil
}

// PendingPurchases returns the pending purchases of one page of the list.
func (s *Service) PendingPurchases(ctx context.Context, page, limit int) ([]Purchase, error) {
	purchases, err := s.Purchases(ctx, PurchaseQuery{Page: page, Limit: limit})
	if err != nil {
		return nil, err
	}
	return FilterPending(purchases), nil
}

// OverduePurchases returns the overdue purchases of one page of the list.
func (s *Service) OverduePurchases(ctx context.Context, page, limit int) ([]Purchase, error) {
	purchases, err := s.Purchases(ctx, PurchaseQuery{Page: page, Limit: limit})
	if err != nil {
		return nil, err
	}
	return FilterOverdue(purchases, s.opts.Now()), nil
}

func (s *Service) pageOptions(resource string) PageOptions {
	return PageOptions{
		PageSize:  s.opts.PageSize,
		MaxPages:  s.opts.MaxPages,
		OnFailure: s.opts.OnPageFailure,
		Resource:  resource,
	}
}

// AllPurchases walks every page of the purchase list.
func (s *Service) AllPurchases(ctx context.Context) ([]Purchase, error) {
	return FetchAllPages(ctx, func(ctx context.Context, page, limit int) ([]Purchase, error) {
		return s.Purchases(ctx, PurchaseQuery{Page: page, Limit: limit})
	}, s.pageOptions("purchases"))
}

// CollectOpenPurchases gathers pending and overdue purchases, deduplicated by id.
func (s *Service) CollectOpenPurchases(ctx context.Context) ([]Purchase, error) {
	now := s.opts.Now()

	if s.opts.CollectMode == CollectDual {
		pendingWalk, err := s.AllPurchases(ctx)
		if err != nil {
			return nil, fmt.Errorf("collecting pending purchases: %w", err)
		}
		overdueWalk, err := s.AllPurchases(ctx)
		if err != nil {
			return nil, fmt.Errorf("collecting overdue purchases: %w", err)
		}
		return DedupeByID(FilterPending(pendingWalk), FilterOverdue(overdueWalk, now)), nil
	}

	all, err := s.AllPurchases(ctx)
	if err != nil {
		return nil, fmt.Errorf("collecting purchases: %w", err)
	}
	return DedupeByID(FilterPending(all), FilterOverdue(all, now)), nil
}

// AllContacts returns the full contact directory, from cache when available.
func (s *Service) AllContacts(ctx context.Context) ([]Contact, error) {
	if s.opts.Cache != nil {
		cached, ok, err := s.opts.Cache.Get(ctx, s.company)
		if err != nil {
			logger.WithCompany(s.company).WithError(err).Warn("contact cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	contacts, err := FetchAllPages(ctx, func(ctx context.Context, page, limit int) ([]Contact, error) {
		var out []Contact
		q := url.Values{"page": {strconv.Itoa(page)}, "limit": {strconv.Itoa(limit)}}
		if err := s.client.Get(ctx, "/contacts", q, &out); err != nil {
			return nil, err
		}
		return out, nil
	}, s.pageOptions("contacts"))
	if err != nil {
		return nil, err
	}

	if s.opts.Cache != nil && len(contacts) > 0 {
		if err := s.opts.Cache.Set(ctx, s.company, contacts); err != nil {
			logger.WithCompany(s.company).WithError(err).Warn("contact cache write failed")
		}
	}
	return contacts, nil
}

func (s *Service) Contact(ctx context.Context, id string) (Contact, error) {
	var c Contact
	if err := s.client.Get(ctx, "/contacts/"+url.PathEscape(id), nil, &c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) PaymentMethods(ctx context.Context) ([]map[string]interface{}, error) {
	var methods []map[string]interface{}
	if err := s.client.Get(ctx, "/paymentmethods", nil, &methods); err != nil {
		return nil, err
	}
	return methods, nil
}

func (s *Service) Products(ctx context.Context, page, limit int) ([]map[string]interface{}, error) {
	var products []map[string]interface{}
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if err := s.client.Get(ctx, "/products", q, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// EnrichPurchases attaches directory contacts to purchases, using the
// per-contact endpoint as fallback when enabled.
func (s *Service) EnrichPurchases(ctx context.Context, purchases []Purchase, contacts []Contact) []Purchase {
	if !s.opts.ContactDetailLookup {
		return Enrich(purchases, contacts)
	}
	return EnrichWithDetail(ctx, purchases, contacts, s.Contact)
}

// Registry resolves tenant ids to their Service.
type Registry struct {
	tenants *config.Tenants
	http    *http.Client
	opts    Options
}

func NewRegistry(tenants *config.Tenants, httpClient *http.Client, opts Options) *Registry {
	return &Registry{tenants: tenants, http: httpClient, opts: opts}
}

func (r *Registry) Service(company string) (*Service, error) {
	tenant, ok := r.tenants.Lookup(company)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompany, company)
	}
	client := NewClient(tenant, r.http, r.opts.RetryAttempts)
	return NewService(tenant.ID, client, r.opts), nil
}

func (r *Registry) Companies() []string {
	return r.tenants.IDs()
}
