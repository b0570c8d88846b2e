package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"campusmarket_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stores en mémoire, utilisés par les tests et le mode dev sans MongoDB.
// La "transaction" clone l'état et le restaure si fn échoue, ce qui reproduit
// la sémantique tout-ou-rien du transactor Mongo.

type memState struct {
	users    map[primitive.ObjectID]models.User
	products map[primitive.ObjectID]models.Product
	carts    map[primitive.ObjectID]models.CartItem
	orders   map[primitive.ObjectID]models.Order
}

func (st memState) clone() memState {
	c := memState{
		users:    make(map[primitive.ObjectID]models.User, len(st.users)),
		products: make(map[primitive.ObjectID]models.Product, len(st.products)),
		carts:    make(map[primitive.ObjectID]models.CartItem, len(st.carts)),
		orders:   make(map[primitive.ObjectID]models.Order, len(st.orders)),
	}
	for k, v := range st.users {
		v.Reviews = append([]string(nil), v.Reviews...)
		c.users[k] = v
	}
	for k, v := range st.products {
		c.products[k] = v
	}
	for k, v := range st.carts {
		c.carts[k] = v
	}
	for k, v := range st.orders {
		c.orders[k] = v
	}
	return c
}

type memRoot struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	state memState
}

// NewMemoryStores construit un jeu de stores en mémoire partageant le même
// état.
func NewMemoryStores() *Stores {
	m := &memRoot{state: memState{
		users:    map[primitive.ObjectID]models.User{},
		products: map[primitive.ObjectID]models.Product{},
		carts:    map[primitive.ObjectID]models.CartItem{},
		orders:   map[primitive.ObjectID]models.Order{},
	}}
	return &Stores{
		Users:    (*memUsers)(m),
		Products: (*memProducts)(m),
		Carts:    (*memCarts)(m),
		Orders:   (*memOrders)(m),
		Tx:       (*memTransactor)(m),
	}
}

type memTransactor memRoot

// WithTransaction sérialise les transactions via txMu : le rollback restaure
// un snapshot complet de l'état, une transaction concurrente committée entre
// le snapshot et le restore serait sinon perdue avec lui. Les écritures hors
// transaction pendant une transaction restent à la charge de l'appelant.
func (t *memTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.txMu.Lock()
	defer t.txMu.Unlock()

	t.mu.Lock()
	snapshot := t.state.clone()
	t.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.mu.Lock()
		t.state = snapshot
		t.mu.Unlock()
		return err
	}
	return nil
}

// --- users ---

type memUsers memRoot

func (m *memUsers) Insert(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Reviews == nil {
		u.Reviews = []string{}
	}
	m.state.users[u.ID] = *u
	return nil
}

func (m *memUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.state.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.state.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memUsers) Update(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.state.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	existing.FirstName = u.FirstName
	existing.LastName = u.LastName
	existing.Email = u.Email
	existing.Age = u.Age
	existing.ContactNumber = u.ContactNumber
	m.state.users[u.ID] = existing
	return nil
}

func (m *memUsers) AppendReview(_ context.Context, sellerID primitive.ObjectID, review string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.state.users[sellerID]
	if !ok {
		return ErrNotFound
	}
	u.Reviews = append(u.Reviews, review)
	m.state.users[sellerID] = u
	return nil
}

// --- products ---

type memProducts memRoot

func (m *memProducts) Insert(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	m.state.products[p.ID] = *p
	return nil
}

func (m *memProducts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.state.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *memProducts) SetImageURL(_ context.Context, id primitive.ObjectID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.state.products[id]
	if !ok {
		return ErrNotFound
	}
	p.ImageURL = url
	m.state.products[id] = p
	return nil
}

func (m *memProducts) Browse(_ context.Context, excludeSeller primitive.ObjectID, f BrowseFilter) ([]models.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.Product
	for _, p := range m.state.products {
		if p.SellerID == excludeSeller {
			continue
		}
		if f.Category != "" && f.Category != "all" && p.Category != f.Category {
			continue
		}
		if f.MinPrice != nil && p.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID.Hex() < all[j].ID.Hex() })
	total := int64(len(all))
	if f.Skip < int64(len(all)) {
		all = all[f.Skip:]
	} else {
		all = nil
	}
	if f.Limit > 0 && int64(len(all)) > f.Limit {
		all = all[:f.Limit]
	}
	return all, total, nil
}

func (m *memProducts) SearchByName(_ context.Context, query string, limit int64) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	needle := strings.ToLower(query)
	var out []models.Product
	for _, p := range m.state.products {
		if int64(len(out)) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProducts) Latest(_ context.Context, limit int64) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Product
	for _, p := range m.state.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memProducts) DistinctCategories(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, p := range m.state.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

// --- carts ---

type memCarts memRoot

func (m *memCarts) locked(fn func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn()
}

func (m *memCarts) find(userID, productID primitive.ObjectID) (primitive.ObjectID, *models.CartItem) {
	for id, item := range m.state.carts {
		if item.UserID == userID && item.ProductID == productID {
			item := item
			return id, &item
		}
	}
	return primitive.NilObjectID, nil
}

func (m *memCarts) Find(_ context.Context, userID, productID primitive.ObjectID) (*models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, item := m.find(userID, productID)
	if item == nil {
		return nil, ErrNotFound
	}
	return item, nil
}

func (m *memCarts) Insert(_ context.Context, item *models.CartItem) error {
	return m.locked(func() error {
		if item.ID.IsZero() {
			item.ID = primitive.NewObjectID()
		}
		m.state.carts[item.ID] = *item
		return nil
	})
}

func (m *memCarts) SetQuantity(_ context.Context, userID, productID primitive.ObjectID, qty int) error {
	return m.locked(func() error {
		id, item := m.find(userID, productID)
		if item == nil {
			return ErrNotFound
		}
		item.Quantity = qty
		m.state.carts[id] = *item
		return nil
	})
}

func (m *memCarts) Delete(_ context.Context, userID, productID primitive.ObjectID) error {
	return m.locked(func() error {
		id, item := m.find(userID, productID)
		if item == nil {
			return ErrNotFound
		}
		delete(m.state.carts, id)
		return nil
	})
}

func (m *memCarts) DeleteAll(_ context.Context, userID primitive.ObjectID) error {
	return m.locked(func() error {
		for id, item := range m.state.carts {
			if item.UserID == userID {
				delete(m.state.carts, id)
			}
		}
		return nil
	})
}

func (m *memCarts) ListJoined(_ context.Context, userID primitive.ObjectID) ([]models.CartEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := []models.CartEntry{}
	for _, item := range m.state.carts {
		if item.UserID != userID {
			continue
		}
		product, ok := m.state.products[item.ProductID]
		if !ok {
			continue
		}
		seller := m.state.users[product.SellerID]
		entries = append(entries, models.CartEntry{
			ID:        item.ID,
			UserID:    item.UserID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Product: models.ProductSummary{
				Name:        product.Name,
				Price:       product.Price,
				Description: product.Description,
				Category:    product.Category,
			},
			Seller: models.UserSummary{
				FirstName: seller.FirstName,
				LastName:  seller.LastName,
				Email:     seller.Email,
			},
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID.Hex() < entries[j].ID.Hex() })
	return entries, nil
}

// --- orders ---

type memOrders memRoot

func (m *memOrders) Insert(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	m.state.orders[o.ID] = *o
	return nil
}

func (m *memOrders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.state.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (m *memOrders) SetOTP(_ context.Context, id primitive.ObjectID, otpHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.state.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.OTP = otpHash
	m.state.orders[id] = o
	return nil
}

func (m *memOrders) MarkDelivered(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.state.orders[id]
	if !ok {
		return ErrNotFound
	}
	if o.IsDelivered {
		return ErrAlreadyDelivered
	}
	o.IsDelivered = true
	m.state.orders[id] = o
	return nil
}

func (m *memOrders) view(o models.Order, counterpartID primitive.ObjectID, asBuyer bool) models.OrderView {
	product := m.state.products[o.ProductID]
	counterpart := m.state.users[counterpartID]
	summary := &models.UserSummary{
		FirstName: counterpart.FirstName,
		LastName:  counterpart.LastName,
		Email:     counterpart.Email,
	}
	v := models.OrderView{
		ID:          o.ID,
		UserID:      o.UserID,
		ProductID:   o.ProductID,
		SellerID:    o.SellerID,
		Quantity:    o.Quantity,
		IsDelivered: o.IsDelivered,
		OrderDate:   o.OrderDate,
		Product: models.ProductSummary{
			Name:        product.Name,
			Price:       product.Price,
			Description: product.Description,
			Category:    product.Category,
		},
	}
	if asBuyer {
		v.Buyer = summary
	} else {
		v.Seller = summary
	}
	return v
}

func (m *memOrders) ListByBuyer(_ context.Context, userID primitive.ObjectID) ([]models.OrderView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	views := []models.OrderView{}
	for _, o := range m.state.orders {
		if o.UserID == userID {
			views = append(views, m.view(o, o.SellerID, false))
		}
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].IsDelivered != views[j].IsDelivered {
			return !views[i].IsDelivered
		}
		return views[i].OrderDate.After(views[j].OrderDate)
	})
	return views, nil
}

func (m *memOrders) ListSold(_ context.Context, sellerID primitive.ObjectID) ([]models.OrderView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	views := []models.OrderView{}
	for _, o := range m.state.orders {
		if o.SellerID == sellerID && o.IsDelivered {
			views = append(views, m.view(o, o.UserID, true))
		}
	}
	sort.Slice(views, func(i, j int) bool { return views[i].OrderDate.After(views[j].OrderDate) })
	return views, nil
}

func (m *memOrders) ListPending(_ context.Context, sellerID primitive.ObjectID) ([]models.OrderView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	views := []models.OrderView{}
	for _, o := range m.state.orders {
		if o.SellerID == sellerID && !o.IsDelivered {
			views = append(views, m.view(o, o.UserID, true))
		}
	}
	sort.Slice(views, func(i, j int) bool { return views[i].OrderDate.After(views[j].OrderDate) })
	return views, nil
}
