package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"car_repair_backend/internal/config"
	"car_repair_backend/internal/models"
	"car_repair_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for the PostgreSQL schema. The typed
// views below implement the repository interfaces on top of it.
type memStore struct {
	nextID     int64
	cars       map[int64]models.Car
	receptions map[int64]models.ReceptionSlip
	repairs    map[int64]models.RepairSlip
	items      map[int64]models.RepairDetail
	components map[int64]models.Component
	invoices   map[int64]models.Invoice
	settings   map[string]string
	users      map[int64]models.User
}

func newMemStore() *memStore {
	return &memStore{
		cars:       map[int64]models.Car{},
		receptions: map[int64]models.ReceptionSlip{},
		repairs:    map[int64]models.RepairSlip{},
		items:      map[int64]models.RepairDetail{},
		components: map[int64]models.Component{},
		invoices:   map[int64]models.Invoice{},
		settings:   map[string]string{},
		users:      map[int64]models.User{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (m *memStore) snapshot() *memStore {
	return &memStore{
		nextID:     m.nextID,
		cars:       copyMap(m.cars),
		receptions: copyMap(m.receptions),
		repairs:    copyMap(m.repairs),
		items:      copyMap(m.items),
		components: copyMap(m.components),
		invoices:   copyMap(m.invoices),
		settings:   copyMap(m.settings),
		users:      copyMap(m.users),
	}
}

// fakeTx restores the store when fn fails, like a rolled back transaction.
type fakeTx struct{ m *memStore }

func (f fakeTx) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	saved := f.m.snapshot()
	if err := fn(nil); err != nil {
		*f.m = *saved
		return err
	}
	return nil
}

type fakeCars struct{ m *memStore }

func (f fakeCars) UpsertByPlate(ctx context.Context, exec repositories.SQLExecutor, car *models.Car) (int64, error) {
	for id, existing := range f.m.cars {
		if existing.LicensePlate == car.LicensePlate {
			car.ID = id
			car.CreatedAt = existing.CreatedAt
			f.m.cars[id] = *car
			return id, nil
		}
	}
	car.ID = f.m.id()
	f.m.cars[car.ID] = *car
	return car.ID, nil
}

func (f fakeCars) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int64) (*models.Car, error) {
	car, ok := f.m.cars[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &car, nil
}

func (f fakeCars) GetByPlate(ctx context.Context, exec repositories.SQLExecutor, plate string) (*models.Car, error) {
	for _, car := range f.m.cars {
		if car.LicensePlate == plate {
			c := car
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

type fakeReceptions struct{ m *memStore }

func (f fakeReceptions) hydrate(slip models.ReceptionSlip) models.ReceptionSlip {
	if car, ok := f.m.cars[slip.CarID]; ok {
		slip.Car = &car
	}
	slip.RepairSlipID = nil
	for id, r := range f.m.repairs {
		if r.ReceptionSlipID == slip.ID {
			rid := id
			slip.RepairSlipID = &rid
		}
	}
	return slip
}

func (f fakeReceptions) Create(ctx context.Context, exec repositories.SQLExecutor, slip *models.ReceptionSlip) (int64, error) {
	if _, ok := f.m.cars[slip.CarID]; !ok {
		return 0, repositories.ErrForeignKey
	}
	slip.ID = f.m.id()
	stored := *slip
	stored.Car, stored.RepairSlipID = nil, nil
	f.m.receptions[slip.ID] = stored
	return slip.ID, nil
}

func (f fakeReceptions) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int64) (*models.ReceptionSlip, error) {
	slip, ok := f.m.receptions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	slip = f.hydrate(slip)
	return &slip, nil
}

func (f fakeReceptions) Update(ctx context.Context, exec repositories.SQLExecutor, slip *models.ReceptionSlip) error {
	stored, ok := f.m.receptions[slip.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	stored.CarID, stored.Description, stored.Status = slip.CarID, slip.Description, slip.Status
	f.m.receptions[slip.ID] = stored
	return nil
}

func (f fakeReceptions) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int64, status models.IntakeStatus) error {
	stored, ok := f.m.receptions[id]
	if !ok {
		return repositories.ErrNotFound
	}
	stored.Status = status
	f.m.receptions[id] = stored
	return nil
}

func (f fakeReceptions) CountReceivedBetween(ctx context.Context, exec repositories.SQLExecutor, from, to time.Time) (int, error) {
	count := 0
	for _, slip := range f.m.receptions {
		if !slip.ReceptionDate.Before(from) && slip.ReceptionDate.Before(to) {
			count++
		}
	}
	return count, nil
}

func hasStatus(statuses []models.IntakeStatus, st models.IntakeStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == st {
			return true
		}
	}
	return false
}

func (f fakeReceptions) List(ctx context.Context, exec repositories.SQLExecutor, filters models.ReceptionFilters) ([]models.ReceptionSlip, error) {
	out := []models.ReceptionSlip{}
	for _, slip := range f.m.receptions {
		if hasStatus(filters.Statuses, slip.Status) {
			out = append(out, f.hydrate(slip))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if filters.OldestFirst {
			return out[i].ID < out[j].ID
		}
		return out[i].ID > out[j].ID
	})
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

type fakeRepairs struct{ m *memStore }

func (f fakeRepairs) hydrate(r models.RepairSlip) models.RepairSlip {
	if slip, ok := f.m.receptions[r.ReceptionSlipID]; ok {
		hydrated := fakeReceptions(f).hydrate(slip)
		r.Reception = &hydrated
	}
	return r
}

func (f fakeRepairs) Create(ctx context.Context, exec repositories.SQLExecutor, repair *models.RepairSlip) (int64, error) {
	for _, r := range f.m.repairs {
		if r.ReceptionSlipID == repair.ReceptionSlipID {
			return 0, repositories.ErrDuplicateKey
		}
	}
	repair.ID = f.m.id()
	stored := *repair
	stored.Reception, stored.Details = nil, nil
	f.m.repairs[repair.ID] = stored
	return repair.ID, nil
}

func (f fakeRepairs) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int64) (*models.RepairSlip, error) {
	r, ok := f.m.repairs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	r = f.hydrate(r)
	return &r, nil
}

func (f fakeRepairs) GetByReceptionID(ctx context.Context, exec repositories.SQLExecutor, receptionID int64) (*models.RepairSlip, error) {
	for _, r := range f.m.repairs {
		if r.ReceptionSlipID == receptionID {
			r = f.hydrate(r)
			return &r, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeRepairs) Finish(ctx context.Context, exec repositories.SQLExecutor, id int64, endDate time.Time) error {
	r, ok := f.m.repairs[id]
	if !ok || r.EndDate != nil {
		return repositories.ErrNotFound
	}
	r.EndDate = &endDate
	f.m.repairs[id] = r
	return nil
}

func (f fakeRepairs) List(ctx context.Context, exec repositories.SQLExecutor, filters repositories.RepairFilters) ([]models.RepairSlip, error) {
	out := []models.RepairSlip{}
	for _, r := range f.m.repairs {
		if filters.TechnicianID != nil && r.TechnicianID != *filters.TechnicianID {
			continue
		}
		if !hasStatus(filters.Statuses, f.m.receptions[r.ReceptionSlipID].Status) {
			continue
		}
		out = append(out, f.hydrate(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type fakeLineItems struct{ m *memStore }

func (f fakeLineItems) hydrate(item models.RepairDetail) models.RepairDetail {
	item.ComponentName = nil
	if item.ComponentID != nil {
		if c, ok := f.m.components[*item.ComponentID]; ok {
			name := c.Name
			item.ComponentName = &name
		}
	}
	return item
}

func (f fakeLineItems) Create(ctx context.Context, exec repositories.SQLExecutor, item *models.RepairDetail) (int64, error) {
	if _, ok := f.m.repairs[item.RepairSlipID]; !ok {
		return 0, repositories.ErrForeignKey
	}
	item.ID = f.m.id()
	f.m.items[item.ID] = *item
	return item.ID, nil
}

func (f fakeLineItems) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int64) (*models.RepairDetail, error) {
	item, ok := f.m.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	item = f.hydrate(item)
	return &item, nil
}

func (f fakeLineItems) UpdateMutable(ctx context.Context, exec repositories.SQLExecutor, item *models.RepairDetail) error {
	stored, ok := f.m.items[item.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	stored.Quantity, stored.Category, stored.LaborFee = item.Quantity, item.Category, item.LaborFee
	f.m.items[item.ID] = stored
	return nil
}

func (f fakeLineItems) Delete(ctx context.Context, exec repositories.SQLExecutor, id int64) error {
	if _, ok := f.m.items[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.m.items, id)
	return nil
}

func (f fakeLineItems) ListByRepairIDs(ctx context.Context, exec repositories.SQLExecutor, repairIDs []int64) ([]models.RepairDetail, error) {
	want := map[int64]bool{}
	for _, id := range repairIDs {
		want[id] = true
	}
	out := []models.RepairDetail{}
	for _, item := range f.m.items {
		if want[item.RepairSlipID] {
			out = append(out, f.hydrate(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeComponents struct{ m *memStore }

func (f fakeComponents) nameTaken(name string, except int64) bool {
	for id, c := range f.m.components {
		if id != except && !c.IsDeleted && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (f fakeComponents) ListActive(ctx context.Context, exec repositories.SQLExecutor) ([]models.Component, error) {
	out := []models.Component{}
	for _, c := range f.m.components {
		if !c.IsDeleted {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f fakeComponents) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int64) (*models.Component, error) {
	c, ok := f.m.components[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

func (f fakeComponents) GetActiveByName(ctx context.Context, exec repositories.SQLExecutor, name string) (*models.Component, error) {
	for _, c := range f.m.components {
		if !c.IsDeleted && strings.EqualFold(c.Name, name) {
			found := c
			return &found, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeComponents) Create(ctx context.Context, exec repositories.SQLExecutor, component *models.Component) (int64, error) {
	if f.nameTaken(component.Name, 0) {
		return 0, repositories.ErrDuplicateKey
	}
	component.ID = f.m.id()
	f.m.components[component.ID] = *component
	return component.ID, nil
}

func (f fakeComponents) Update(ctx context.Context, exec repositories.SQLExecutor, component *models.Component) error {
	stored, ok := f.m.components[component.ID]
	if !ok || stored.IsDeleted {
		return repositories.ErrNotFound
	}
	if f.nameTaken(component.Name, component.ID) {
		return repositories.ErrDuplicateKey
	}
	f.m.components[component.ID] = *component
	return nil
}

func (f fakeComponents) SoftDelete(ctx context.Context, exec repositories.SQLExecutor, id int64) error {
	c, ok := f.m.components[id]
	if !ok || c.IsDeleted {
		return repositories.ErrNotFound
	}
	c.IsDeleted = true
	f.m.components[id] = c
	return nil
}

func (f fakeComponents) AddStock(ctx context.Context, exec repositories.SQLExecutor, id int64, quantity int) (int, error) {
	c, ok := f.m.components[id]
	if !ok || c.IsDeleted {
		return 0, repositories.ErrNotFound
	}
	c.StockQuantity += quantity
	f.m.components[id] = c
	return c.StockQuantity, nil
}

func (f fakeComponents) UpdatePrice(ctx context.Context, exec repositories.SQLExecutor, id int64, price decimal.Decimal) error {
	c, ok := f.m.components[id]
	if !ok || c.IsDeleted {
		return repositories.ErrNotFound
	}
	c.CurrentPrice = price
	f.m.components[id] = c
	return nil
}

type fakeInvoices struct{ m *memStore }

func (f fakeInvoices) Create(ctx context.Context, exec repositories.SQLExecutor, invoice *models.Invoice) (int64, error) {
	for _, inv := range f.m.invoices {
		if inv.RepairSlipID == invoice.RepairSlipID {
			return 0, repositories.ErrDuplicateKey
		}
	}
	invoice.ID = f.m.id()
	f.m.invoices[invoice.ID] = *invoice
	return invoice.ID, nil
}

func (f fakeInvoices) GetByRepairID(ctx context.Context, exec repositories.SQLExecutor, repairID int64) (*models.Invoice, error) {
	for _, inv := range f.m.invoices {
		if inv.RepairSlipID == repairID {
			found := inv
			return &found, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeInvoices) ListRecent(ctx context.Context, exec repositories.SQLExecutor, limit int) ([]models.Invoice, error) {
	out := []models.Invoice{}
	for _, inv := range f.m.invoices {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeSettings struct{ m *memStore }

func (f fakeSettings) Get(ctx context.Context, exec repositories.SQLExecutor, key string) (string, error) {
	v, ok := f.m.settings[key]
	if !ok {
		return "", repositories.ErrNotFound
	}
	return v, nil
}

func (f fakeSettings) List(ctx context.Context, exec repositories.SQLExecutor) ([]models.Setting, error) {
	out := []models.Setting{}
	for k, v := range f.m.settings {
		out = append(out, models.Setting{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (f fakeSettings) Upsert(ctx context.Context, exec repositories.SQLExecutor, key, value string) error {
	f.m.settings[key] = value
	return nil
}

type fakeUsers struct{ m *memStore }

func (f fakeUsers) CreateUser(ctx context.Context, exec repositories.SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	for _, u := range f.m.users {
		if u.Username == user.Username {
			return 0, repositories.ErrDuplicateKey
		}
	}
	user.ID = f.m.id()
	user.IsActive = true
	stored := *user
	stored.PasswordHash = hashedPassword
	f.m.users[user.ID] = stored
	return user.ID, nil
}

func (f fakeUsers) FindUserByUsername(ctx context.Context, exec repositories.SQLExecutor, username string) (*models.User, error) {
	for _, u := range f.m.users {
		if u.Username == username {
			found := u
			return &found, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeUsers) FindUserByID(ctx context.Context, exec repositories.SQLExecutor, userID int64) (*models.User, error) {
	u, ok := f.m.users[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	u.PasswordHash = ""
	return &u, nil
}

func (f fakeUsers) ListUsers(ctx context.Context, exec repositories.SQLExecutor) ([]models.User, error) {
	out := []models.User{}
	for _, u := range f.m.users {
		u.PasswordHash = ""
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeReports returns canned aggregates and records the arguments it saw.
type fakeReports struct {
	revenue       map[int]decimal.Decimal
	vehicleTypes  []models.BreakdownItem
	categories    []models.BreakdownItem
	lowStock      []models.LowStockItem
	usage         []models.InventoryUsageItem
	lastThreshold int
	lastFrom      time.Time
	lastTo        time.Time
	lastSince     time.Time
}

func (f *fakeReports) RevenueByDay(ctx context.Context, exec repositories.SQLExecutor, from, to time.Time) (map[int]decimal.Decimal, error) {
	f.lastFrom, f.lastTo = from, to
	return f.revenue, nil
}

func (f *fakeReports) VehicleTypeCounts(ctx context.Context, exec repositories.SQLExecutor, from, to time.Time) ([]models.BreakdownItem, error) {
	return f.vehicleTypes, nil
}

func (f *fakeReports) CategoryCounts(ctx context.Context, exec repositories.SQLExecutor, from, to time.Time) ([]models.BreakdownItem, error) {
	return f.categories, nil
}

func (f *fakeReports) LowStock(ctx context.Context, exec repositories.SQLExecutor, threshold int, usageSince time.Time) ([]models.LowStockItem, error) {
	f.lastThreshold, f.lastSince = threshold, usageSince
	out := []models.LowStockItem{}
	for _, it := range f.lowStock {
		if it.StockQuantity <= threshold {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeReports) LowStockCount(ctx context.Context, exec repositories.SQLExecutor, threshold int) (int, error) {
	f.lastThreshold = threshold
	items, _ := f.LowStock(ctx, exec, threshold, time.Time{})
	return len(items), nil
}

func (f *fakeReports) ComponentUsage(ctx context.Context, exec repositories.SQLExecutor) ([]models.InventoryUsageItem, error) {
	out := make([]models.InventoryUsageItem, len(f.usage))
	copy(out, f.usage)
	return out, nil
}

// shop wires the services the way the router does, over one memStore.
type shop struct {
	store      *memStore
	settings   SettingsService
	components ComponentService
	workflow   *workflowService
	clock      time.Time
}

var (
	admin      = models.Actor{UserID: 1, Role: models.RoleAdmin}
	reception  = models.Actor{UserID: 2, Role: models.RoleReception}
	technician = models.Actor{UserID: 3, Role: models.RoleTechnician}
	cashier    = models.Actor{UserID: 4, Role: models.RoleCashier}
)

func newShop(policy config.WorkflowPolicy) *shop {
	m := newMemStore()
	m.nextID = 100
	tx := fakeTx{m: m}
	settings := NewSettingsService(fakeSettings{m}, nil, tx)
	sh := &shop{
		store:      m,
		settings:   settings,
		components: NewComponentService(fakeComponents{m}, nil, tx),
		clock:      time.Date(2024, time.March, 15, 9, 30, 0, 0, time.Local),
	}
	stores := WorkflowStores{
		Cars:       fakeCars{m},
		Receptions: fakeReceptions{m},
		Repairs:    fakeRepairs{m},
		LineItems:  fakeLineItems{m},
		Components: fakeComponents{m},
		Invoices:   fakeInvoices{m},
	}
	sh.workflow = NewWorkflowService(stores, settings, nil, tx, policy, "VN").(*workflowService)
	sh.workflow.now = func() time.Time { return sh.clock }
	return sh
}
