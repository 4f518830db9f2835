package memory

import (
	"commerce_server/database"
	"commerce_server/lib"
	"commerce_server/structs"
	"commerce_server/structs/tables"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type users struct{ v *view }

func (r *users) Create(ctx context.Context, user *tables.User) error {
	return r.v.do("users.create", func(st *state) error {
		user.Email = strings.ToLower(strings.TrimSpace(user.Email))
		for _, u := range st.users {
			if u.Email == user.Email {
				return fmt.Errorf("%w: users_email_key", lib.ErrConflict)
			}
		}
		if user.Id == uuid.Nil {
			user.Id = uuid.New()
		}
		now := r.v.store.now()
		user.CreatedAt, user.UpdatedAt = now, now
		st.users[user.Id] = *user
		st.track(user.Id)
		return nil
	})
}

func (r *users) FindByID(ctx context.Context, id uuid.UUID) (*tables.User, error) {
	var out *tables.User
	err := r.v.do("users.find_by_id", func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return lib.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *users) FindByEmail(ctx context.Context, email string) (*tables.User, error) {
	var out *tables.User
	email = strings.ToLower(strings.TrimSpace(email))
	err := r.v.do("users.find_by_email", func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				out = &u
				return nil
			}
		}
		return lib.ErrNotFound
	})
	return out, err
}

func (r *users) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if lib.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

type tokens struct{ v *view }

func (r *tokens) Create(ctx context.Context, token *tables.AccessToken) error {
	return r.v.do("access_tokens.create", func(st *state) error {
		if _, ok := st.users[token.UserId]; !ok {
			return fmt.Errorf("%w: access_tokens_user_id_fkey", lib.ErrNotFound)
		}
		if token.Name == "" {
			token.Name = "authToken"
		}
		token.CreatedAt = r.v.store.now()
		st.tokens[token.Id] = *token
		st.track(token.Id)
		return nil
	})
}

func (r *tokens) FindByID(ctx context.Context, id uuid.UUID) (*tables.AccessToken, error) {
	var out *tables.AccessToken
	err := r.v.do("access_tokens.find_by_id", func(st *state) error {
		t, ok := st.tokens[id]
		if !ok {
			return lib.ErrNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *tokens) DeleteByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.v.do("access_tokens.delete_by_user", func(st *state) error {
		for id, t := range st.tokens {
			if t.UserId == userID {
				ids = append(ids, id)
				delete(st.tokens, id)
			}
		}
		return nil
	})
	return ids, err
}

type products struct{ v *view }

func (r *products) List(ctx context.Context, opts structs.ProductListOptions) ([]tables.Product, int, error) {
	var out []tables.Product
	var total int
	err := r.v.do("products.list", func(st *state) error {
		search := strings.ToLower(strings.TrimSpace(opts.Search))
		var matched []tables.Product
		for _, p := range st.products {
			if search == "" || strings.Contains(strings.ToLower(p.Name), search) {
				matched = append(matched, p)
			}
		}
		slices.SortFunc(matched, func(a, b tables.Product) int {
			return int(st.seq[a.ID] - st.seq[b.ID])
		})
		total = len(matched)
		out = paginate(matched, opts.Page, opts.PerPage)
		return nil
	})
	return out, total, err
}

func (r *products) Create(ctx context.Context, product *tables.Product) error {
	return r.v.do("products.create", func(st *state) error {
		if product.ID == uuid.Nil {
			product.ID = uuid.New()
		}
		now := r.v.store.now()
		product.CreatedAt, product.UpdatedAt = now, now
		st.products[product.ID] = *product
		st.track(product.ID)
		return nil
	})
}

func (r *products) FindByID(ctx context.Context, id uuid.UUID) (*tables.Product, error) {
	var out *tables.Product
	err := r.v.do("products.find_by_id", func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return lib.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *products) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*tables.Product, error) {
	var out *tables.Product
	err := r.v.do("products.update", func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return lib.ErrNotFound
		}
		for column, value := range fields {
			switch column {
			case "name":
				p.Name = value.(string)
			case "description":
				p.Description = value.(string)
			case "price":
				p.Price = value.(decimal.Decimal)
			case "stock":
				p.Stock = value.(int)
			default:
				return fmt.Errorf("unknown products column %q", column)
			}
		}
		if len(fields) > 0 {
			p.UpdatedAt = r.v.store.now()
		}
		st.products[id] = p
		out = &p
		return nil
	})
	return out, err
}

func (r *products) Delete(ctx context.Context, id uuid.UUID) error {
	return r.v.do("products.delete", func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return lib.ErrNotFound
		}
		delete(st.products, id)
		// ON DELETE SET NULL
		for lid, l := range st.lines {
			if l.ProductId != nil && *l.ProductId == id {
				l.ProductId = nil
				st.lines[lid] = l
			}
		}
		return nil
	})
}

func (r *products) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.v.do("products.exists", func(st *state) error {
		_, ok = st.products[id]
		return nil
	})
	return ok, err
}

func (r *products) LockForOrder(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*tables.Product, error) {
	out := make(map[uuid.UUID]*tables.Product, len(ids))
	err := r.v.do("products.lock_for_order", func(st *state) error {
		for _, id := range ids {
			if p, ok := st.products[id]; ok {
				out[id] = &p
			}
		}
		return nil
	})
	return out, err
}

type orders struct{ v *view }

func (r *orders) Create(ctx context.Context, order *tables.Order) error {
	return r.v.do("orders.create", func(st *state) error {
		if _, ok := st.users[order.UserId]; !ok {
			return fmt.Errorf("%w: orders_user_id_fkey", lib.ErrNotFound)
		}
		if order.Id == uuid.Nil {
			order.Id = uuid.New()
		}
		if order.Status == "" {
			order.Status = tables.OrderStatusPending
		}
		now := r.v.store.now()
		order.CreatedAt, order.UpdatedAt = now, now
		row := *order
		row.Lines = nil
		st.orders[order.Id] = row
		st.track(order.Id)
		return nil
	})
}

// load assembles an order with its lines and their products
func load(st *state, o tables.Order) *tables.Order {
	var lines []*tables.OrderLine
	for _, l := range st.lines {
		if l.OrderId != o.Id {
			continue
		}
		line := l
		if line.ProductId != nil {
			if p, ok := st.products[*line.ProductId]; ok {
				line.Product = &p
			}
		}
		lines = append(lines, &line)
	}
	slices.SortFunc(lines, func(a, b *tables.OrderLine) int {
		return int(st.seq[a.Id] - st.seq[b.Id])
	})
	if lines == nil {
		lines = []*tables.OrderLine{}
	}
	o.Lines = lines
	return &o
}

func (r *orders) FindByID(ctx context.Context, id uuid.UUID) (*tables.Order, error) {
	var out *tables.Order
	err := r.v.do("orders.find_by_id", func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return lib.ErrNotFound
		}
		out = load(st, o)
		return nil
	})
	return out, err
}

func (r *orders) FindForUpdate(ctx context.Context, id uuid.UUID) (*tables.Order, error) {
	var out *tables.Order
	err := r.v.do("orders.find_for_update", func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return lib.ErrNotFound
		}
		out = &o
		return nil
	})
	return out, err
}

func (r *orders) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.v.do("orders.update", func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return lib.ErrNotFound
		}
		for column, value := range fields {
			switch column {
			case "client_name":
				o.ClientName = value.(string)
			case "client_phone":
				o.ClientPhone = value.(string)
			case "total_price":
				o.TotalPrice = value.(decimal.Decimal)
			case "status":
				o.Status = value.(tables.OrderStatus)
			case "updated_at":
			default:
				return fmt.Errorf("unknown orders column %q", column)
			}
		}
		o.UpdatedAt = r.v.store.now()
		st.orders[id] = o
		return nil
	})
}

// SetStatus moves an order to status, for setting up paid and delivered orders.
func (s *Store) SetStatus(id uuid.UUID, status tables.OrderStatus) error {
	return s.Orders().Update(context.Background(), id, map[string]any{"status": status})
}

func (r *orders) Delete(ctx context.Context, id uuid.UUID) error {
	return r.v.do("orders.delete", func(st *state) error {
		if _, ok := st.orders[id]; !ok {
			return lib.ErrNotFound
		}
		delete(st.orders, id)
		// ON DELETE CASCADE
		for lid, l := range st.lines {
			if l.OrderId == id {
				delete(st.lines, lid)
			}
		}
		return nil
	})
}

func (r *orders) Search(ctx context.Context, opts structs.OrderListOptions) ([]tables.Order, int, error) {
	var out []tables.Order
	var total int
	err := r.v.do("orders.search", func(st *state) error {
		name := strings.ToLower(strings.TrimSpace(opts.ClientName))
		var matched []tables.Order
		for _, o := range st.orders {
			if name == "" || strings.Contains(strings.ToLower(o.ClientName), name) {
				matched = append(matched, *load(st, o))
			}
		}
		slices.SortFunc(matched, func(a, b tables.Order) int {
			return int(st.seq[a.Id] - st.seq[b.Id])
		})
		total = len(matched)
		out = paginate(matched, opts.Page, opts.PerPage)
		return nil
	})
	return out, total, err
}

type orderLines struct{ v *view }

func (r *orderLines) CreateMany(ctx context.Context, lines []*tables.OrderLine) error {
	return r.v.do("order_lines.create_many", func(st *state) error {
		now := r.v.store.now()
		for _, l := range lines {
			if _, ok := st.orders[l.OrderId]; !ok {
				return fmt.Errorf("%w: order_lines_order_id_fkey", lib.ErrNotFound)
			}
			if l.ProductId != nil {
				if _, ok := st.products[*l.ProductId]; !ok {
					return fmt.Errorf("%w: order_lines_product_id_fkey", lib.ErrNotFound)
				}
			}
			if l.Id == uuid.Nil {
				l.Id = uuid.New()
			}
			l.CreatedAt, l.UpdatedAt = now, now
			row := *l
			row.Product, row.Order = nil, nil
			st.lines[l.Id] = row
			st.track(l.Id)
		}
		return nil
	})
}

func (r *orderLines) DeleteByOrder(ctx context.Context, orderID uuid.UUID) (int, error) {
	var n int
	err := r.v.do("order_lines.delete_by_order", func(st *state) error {
		for id, l := range st.lines {
			if l.OrderId == orderID {
				delete(st.lines, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func paginate[T any](rows []T, page, perPage int) []T {
	page, perPage = database.NormalizePage(page, perPage, 10)
	start := (page - 1) * perPage
	if start >= len(rows) {
		return []T{}
	}
	end := min(start+perPage, len(rows))
	return rows[start:end]
}
