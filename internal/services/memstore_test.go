package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/agamariel/mastercrm/internal/models"
	"github.com/agamariel/mastercrm/internal/numbering"
	"github.com/agamariel/mastercrm/internal/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// memDB - хранилище в памяти, ведущее себя как Postgres-реализация.
// Идентификаторы статусов намеренно не совпадают с порядком воронки.
type memDB struct {
	mu sync.Mutex

	orders      map[int64]*models.Order
	nextOrderID int64

	statuses []*models.Status

	masters      map[int64]*models.Master
	nextMasterID int64

	cities  map[int64]*models.City
	sources map[int64]*models.Source

	updateStatusErr error
	orderUpdates    int
	createOrderErrs []error
	masterCreates   int
}

func newMemDB() *memDB {
	db := &memDB{
		orders:  make(map[int64]*models.Order),
		masters: make(map[int64]*models.Master),
		cities: map[int64]*models.City{
			1: {ID: 1, Name: "Москва", SortOrder: 1},
			2: {ID: 2, Name: "Казань", SortOrder: 2},
		},
		sources: map[int64]*models.Source{
			1: {ID: 1, Name: "Авито"},
		},
	}
	ids := []int64{11, 12, 13, 14, 15, 16}
	for i, stage := range models.Stages() {
		db.statuses = append(db.statuses, &models.Status{
			ID:        ids[i],
			Name:      stage.Name(),
			Color:     "#000000",
			SortOrder: i + 1,
		})
	}
	return db
}

func (db *memDB) statusID(stage models.Stage) int64 {
	for _, s := range db.statuses {
		if s.Name == stage.Name() {
			return s.ID
		}
	}
	return 0
}

func (db *memDB) order(id int64) models.Order {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.orders[id]
}

func (db *memDB) seedOrder(o models.Order) int64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.nextOrderID++
	o.ID = db.nextOrderID
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	o.UpdatedAt = o.CreatedAt
	db.orders[o.ID] = &o
	return o.ID
}

func (db *memDB) seedMaster(nick string) *models.Master {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.nextMasterID++
	m := &models.Master{ID: db.nextMasterID, TelegramNick: nick, CreatedAt: time.Now()}
	db.masters[m.ID] = m
	return m
}

type memOrders struct{ db *memDB }

func (s memOrders) Create(ctx context.Context, order *models.Order) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if len(s.db.createOrderErrs) > 0 {
		err := s.db.createOrderErrs[0]
		s.db.createOrderErrs = s.db.createOrderErrs[1:]
		if err != nil {
			return err
		}
	}
	for _, o := range s.db.orders {
		if order.OrderNumber.Valid && o.OrderNumber == order.OrderNumber {
			return storage.ErrOrderNumberTaken
		}
	}

	s.db.nextOrderID++
	order.ID = s.db.nextOrderID
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	stored := *order
	s.db.orders[order.ID] = &stored
	return nil
}

func (s memOrders) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	o, ok := s.db.orders[id]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	copied := *o
	return &copied, nil
}

func (s memOrders) GetView(ctx context.Context, id int64) (*models.OrderView, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	o, ok := s.db.orders[id]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	return s.db.view(o), nil
}

func (db *memDB) view(o *models.Order) *models.OrderView {
	v := &models.OrderView{Order: *o}
	for _, st := range db.statuses {
		if st.ID == o.StatusID {
			v.StatusName = null.StringFrom(st.Name)
			v.StatusColor = null.StringFrom(st.Color)
		}
	}
	if o.SourceID.Valid {
		if src, ok := db.sources[o.SourceID.Int64]; ok {
			v.SourceName = null.StringFrom(src.Name)
		}
	}
	if o.MasterID.Valid {
		if m, ok := db.masters[o.MasterID.Int64]; ok {
			v.MasterNick = null.StringFrom(m.TelegramNick)
		}
	}
	if c, ok := db.cities[o.CityID]; ok {
		v.CityName = null.StringFrom(c.Name)
	}
	return v
}

func (db *memDB) views(match func(o *models.Order) bool, limit int) []*models.OrderView {
	ids := make([]int64, 0, len(db.orders))
	for id, o := range db.orders {
		if match(o) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	result := make([]*models.OrderView, 0, len(ids))
	for _, id := range ids {
		result = append(result, db.view(db.orders[id]))
	}
	return result
}

func (s memOrders) ListByCity(ctx context.Context, cityID int64) ([]*models.OrderView, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.views(func(o *models.Order) bool { return o.CityID == cityID }, 0), nil
}

func (s memOrders) ListByPhone(ctx context.Context, phone string, limit uint64) ([]*models.OrderView, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.views(func(o *models.Order) bool { return o.Phone.String == phone }, int(limit)), nil
}

func (s memOrders) Search(ctx context.Context, q string, limit uint64) ([]*models.OrderView, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q = strings.ToLower(q)
	return s.db.views(func(o *models.Order) bool {
		for _, f := range []null.String{o.Address, o.Metro, o.Phone, o.ClientName, o.Problem} {
			if strings.Contains(strings.ToLower(f.String), q) {
				return true
			}
		}
		return false
	}, int(limit)), nil
}

func (s memOrders) Update(ctx context.Context, id int64, fields models.OrderFields) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	o, ok := s.db.orders[id]
	if !ok {
		return storage.ErrOrderNotFound
	}
	s.db.orderUpdates++
	setString := func(dst *null.String, v *null.String) {
		if v != nil {
			*dst = *v
		}
	}
	setInt := func(dst *null.Int64, v *null.Int64) {
		if v != nil {
			*dst = *v
		}
	}
	setInt(&o.SourceID, fields.SourceID)
	setInt(&o.MasterID, fields.MasterID)
	setString(&o.Address, fields.Address)
	setString(&o.Metro, fields.Metro)
	setString(&o.Problem, fields.Problem)
	setString(&o.Comment, fields.Comment)
	setString(&o.Phone, fields.Phone)
	setString(&o.ClientName, fields.ClientName)
	setString(&o.ScheduledTime, fields.ScheduledTime)
	setString(&o.RecordingURL, fields.RecordingURL)
	o.UpdatedAt = time.Now()
	return nil
}

func (s memOrders) UpdateStatus(ctx context.Context, id, statusID int64, masterID null.Int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.updateStatusErr != nil {
		return s.db.updateStatusErr
	}
	o, ok := s.db.orders[id]
	if !ok {
		return storage.ErrOrderNotFound
	}
	o.StatusID = statusID
	if masterID.Valid {
		o.MasterID = masterID
	}
	o.UpdatedAt = time.Now()
	return nil
}

func (s memOrders) Close(ctx context.Context, id int64, closeOut models.CloseOut) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	o, ok := s.db.orders[id]
	if !ok {
		return storage.ErrOrderNotFound
	}
	o.StatusID = closeOut.StatusID
	o.Amount = decimal.NewNullDecimal(closeOut.Amount)
	o.MyShare = decimal.NewNullDecimal(closeOut.MyShare)
	o.MasterShare = decimal.NewNullDecimal(closeOut.MasterShare)
	if !o.ClosedAt.Valid {
		o.ClosedAt = null.TimeFrom(time.Now())
	}
	o.UpdatedAt = time.Now()
	return nil
}

func (s memOrders) Delete(ctx context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.orders[id]; !ok {
		return storage.ErrOrderNotFound
	}
	delete(s.db.orders, id)
	return nil
}

func (s memOrders) LastNumber(ctx context.Context, prefix string) (string, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var last string
	for _, o := range s.db.orders {
		if strings.HasPrefix(o.OrderNumber.String, prefix+"-") && o.OrderNumber.String > last {
			last = o.OrderNumber.String
		}
	}
	return last, nil
}

type memStatuses struct{ db *memDB }

func (s memStatuses) List(ctx context.Context) ([]*models.Status, error) {
	return s.db.statuses, nil
}

func (s memStatuses) GetByID(ctx context.Context, id int64) (*models.Status, error) {
	for _, st := range s.db.statuses {
		if st.ID == id {
			return st, nil
		}
	}
	return nil, storage.ErrStatusNotFound
}

func (s memStatuses) GetByName(ctx context.Context, name string) (*models.Status, error) {
	for _, st := range s.db.statuses {
		if st.Name == name {
			return st, nil
		}
	}
	return nil, storage.ErrStatusNotFound
}

type memMasters struct{ db *memDB }

func (s memMasters) FindByNick(ctx context.Context, nick string) (*models.Master, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, m := range s.db.masters {
		if m.TelegramNick == nick {
			return m, nil
		}
	}
	return nil, storage.ErrMasterNotFound
}

func (s memMasters) Create(ctx context.Context, nick string) (*models.Master, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, m := range s.db.masters {
		if m.TelegramNick == nick {
			return nil, storage.ErrMasterExists
		}
	}
	s.db.masterCreates++
	s.db.nextMasterID++
	m := &models.Master{ID: s.db.nextMasterID, TelegramNick: nick, CreatedAt: time.Now()}
	s.db.masters[m.ID] = m
	return m, nil
}

func (s memMasters) GetByID(ctx context.Context, id int64) (*models.Master, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	m, ok := s.db.masters[id]
	if !ok {
		return nil, storage.ErrMasterNotFound
	}
	return m, nil
}

func (s memMasters) ListWithTotals(ctx context.Context) ([]*models.MasterWithTotals, error) {
	return []*models.MasterWithTotals{}, nil
}

func (s memMasters) Totals(ctx context.Context, id int64) (*models.MasterTotals, *models.MasterMonthTotals, error) {
	return &models.MasterTotals{}, &models.MasterMonthTotals{}, nil
}

type memCities struct{ db *memDB }

func (s memCities) List(ctx context.Context, newStatusID int64) ([]*models.CityWithCounts, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	result := make([]*models.CityWithCounts, 0, len(s.db.cities))
	for _, c := range s.db.cities {
		item := &models.CityWithCounts{City: *c}
		for _, o := range s.db.orders {
			if o.CityID != c.ID {
				continue
			}
			item.OrderCount++
			if o.StatusID == newStatusID {
				item.NewCount++
			}
		}
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result, nil
}

func (s memCities) GetByID(ctx context.Context, id int64) (*models.City, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.cities[id]
	if !ok {
		return nil, storage.ErrCityNotFound
	}
	return c, nil
}

func (s memCities) Create(ctx context.Context, name string) (*models.City, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	maxID, maxSort := int64(0), 0
	for _, c := range s.db.cities {
		if c.Name == name {
			return nil, storage.ErrCityExists
		}
		if c.ID > maxID {
			maxID = c.ID
		}
		if c.SortOrder > maxSort {
			maxSort = c.SortOrder
		}
	}
	c := &models.City{ID: maxID + 1, Name: name, SortOrder: maxSort + 1}
	s.db.cities[c.ID] = c
	return c, nil
}

func (s memCities) Update(ctx context.Context, id int64, name *string, sortOrder *int) (*models.City, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.cities[id]
	if !ok {
		return nil, storage.ErrCityNotFound
	}
	if name != nil {
		c.Name = *name
	}
	if sortOrder != nil {
		c.SortOrder = *sortOrder
	}
	return c, nil
}

func (s memCities) CountOrders(ctx context.Context, id int64) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for _, o := range s.db.orders {
		if o.CityID == id {
			n++
		}
	}
	return n, nil
}

func (s memCities) Delete(ctx context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.cities[id]; !ok {
		return storage.ErrCityNotFound
	}
	delete(s.db.cities, id)
	return nil
}

type memSources struct{ db *memDB }

func (s memSources) List(ctx context.Context) ([]*models.Source, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	result := make([]*models.Source, 0, len(s.db.sources))
	for _, src := range s.db.sources {
		result = append(result, src)
	}
	return result, nil
}

func (s memSources) GetByID(ctx context.Context, id int64) (*models.Source, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	src, ok := s.db.sources[id]
	if !ok {
		return nil, storage.ErrSourceNotFound
	}
	return src, nil
}

func (s memSources) Create(ctx context.Context, name string) (*models.Source, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	src := &models.Source{ID: int64(len(s.db.sources) + 1), Name: name}
	s.db.sources[src.ID] = src
	return src, nil
}

func (s memSources) Delete(ctx context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.sources[id]; !ok {
		return storage.ErrSourceNotFound
	}
	delete(s.db.sources, id)
	for _, o := range s.db.orders {
		if o.SourceID.Valid && o.SourceID.Int64 == id {
			o.SourceID = null.Int64{}
		}
	}
	return nil
}

// newTestOrderService собирает сервис заказов поверх memDB с часами на январь 2025.
func newTestOrderService(db *memDB) *OrderServiceImpl {
	orders := memOrders{db}
	statuses := memStatuses{db}
	allocator := numbering.NewAllocator(numbering.NewMemorySequence(orders)).
		WithClock(func() time.Time { return time.Date(2025, time.January, 20, 10, 0, 0, 0, time.UTC) })

	return NewOrderService(OrderDeps{
		Orders:    orders,
		Statuses:  statuses,
		Cities:    memCities{db},
		Sources:   memSources{db},
		Stages:    NewStageResolver(statuses),
		Masters:   NewMasterResolver(memMasters{db}, zap.NewNop()),
		Allocator: allocator,
		Log:       zap.NewNop(),
	})
}
