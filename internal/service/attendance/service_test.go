package attendance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/agrofield/attendance-backend-go/internal/domain/area"
	"github.com/agrofield/attendance-backend-go/internal/domain/attendance"
	"github.com/agrofield/attendance-backend-go/internal/domain/employee"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTxRunner runs fn directly; the savepoint behaviour the real runner
// provides is simulated by fakeAttendanceRepo returning ErrAlreadyRegistered.
type fakeTxRunner struct {
	calls int
}

func (f *fakeTxRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakeAttendanceRepo struct {
	bundles  map[string]attendance.RecordBundle
	failWith error
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{bundles: make(map[string]attendance.RecordBundle)}
}

func bundleKey(employeeID string, date time.Time) string {
	return employeeID + "|" + date.Format("2006-01-02")
}

func (f *fakeAttendanceRepo) CreateBundle(ctx context.Context, bundle attendance.RecordBundle) (attendance.AttendanceRecord, error) {
	if f.failWith != nil {
		return attendance.AttendanceRecord{}, f.failWith
	}
	key := bundleKey(bundle.Record.EmployeeID, bundle.Record.Date)
	if _, ok := f.bundles[key]; ok {
		return attendance.AttendanceRecord{}, attendance.ErrAlreadyRegistered
	}
	bundle.Record.ID = uuid.NewString()
	f.bundles[key] = bundle
	return bundle.Record, nil
}

func (f *fakeAttendanceRepo) ListEmployeeIDsWithRecord(ctx context.Context, date time.Time, employeeIDs []string) ([]string, error) {
	var ids []string
	for _, id := range employeeIDs {
		if _, ok := f.bundles[bundleKey(id, date)]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeAttendanceRepo) ListByDateAndAreaIDs(ctx context.Context, date time.Time, areaIDs []string) ([]attendance.AttendanceRecord, error) {
	inScope := make(map[string]bool, len(areaIDs))
	for _, id := range areaIDs {
		inScope[id] = true
	}
	var records []attendance.AttendanceRecord
	for _, b := range f.bundles {
		rec := b.Record
		if !rec.Date.Equal(date) || rec.AreaID == nil || !inScope[*rec.AreaID] {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (f *fakeAttendanceRepo) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.AttendanceRecord, int64, error) {
	var records []attendance.AttendanceRecord
	for _, b := range f.bundles {
		records = append(records, b.Record)
	}
	return records, int64(len(records)), nil
}

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
}

func (f *fakeEmployeeRepo) ListActiveByIDs(ctx context.Context, ids []string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, id := range ids {
		if emp, ok := f.employees[id]; ok && emp.Status == employee.EmploymentStatusActive {
			out = append(out, emp)
		}
	}
	return out, nil
}

func (f *fakeEmployeeRepo) ListActiveByAreaIDs(ctx context.Context, areaIDs []string) ([]employee.Employee, error) {
	inScope := make(map[string]bool, len(areaIDs))
	for _, id := range areaIDs {
		inScope[id] = true
	}
	var out []employee.Employee
	for _, emp := range f.employees {
		if emp.Status == employee.EmploymentStatusActive && inScope[emp.AreaID] {
			out = append(out, emp)
		}
	}
	return out, nil
}

type fakeAreaRepo struct {
	areas map[string]area.Area
}

func (f *fakeAreaRepo) GetByIDs(ctx context.Context, ids []string) ([]area.Area, error) {
	var out []area.Area
	for _, id := range ids {
		if ar, ok := f.areas[id]; ok {
			out = append(out, ar)
		}
	}
	return out, nil
}

func (f *fakeAreaRepo) ListAll(ctx context.Context) ([]area.Area, error) {
	var out []area.Area
	for _, ar := range f.areas {
		out = append(out, ar)
	}
	return out, nil
}

// env bundles the fakes behind one service instance.
type env struct {
	svc       attendance.AttendanceService
	txRunner  *fakeTxRunner
	attRepo   *fakeAttendanceRepo
	empRepo   *fakeEmployeeRepo
	areaRepo  *fakeAreaRepo
	fieldArea area.Area
}

func newEnv() *env {
	fieldArea := area.Area{
		ID:                  uuid.NewString(),
		Name:                "North Field",
		DefaultEntryTime:    "06:30",
		DefaultExitTime:     "16:00",
		DefaultLunchMinutes: 30,
		DefaultWorkingHours: decimal.NewFromFloat(8),
	}
	txRunner := &fakeTxRunner{}
	attRepo := newFakeAttendanceRepo()
	empRepo := &fakeEmployeeRepo{employees: make(map[string]employee.Employee)}
	areaRepo := &fakeAreaRepo{areas: map[string]area.Area{fieldArea.ID: fieldArea}}
	return &env{
		svc:       NewAttendanceService(txRunner, attRepo, empRepo, areaRepo),
		txRunner:  txRunner,
		attRepo:   attRepo,
		empRepo:   empRepo,
		areaRepo:  areaRepo,
		fieldArea: fieldArea,
	}
}

func (e *env) addEmployee(name string) employee.Employee {
	emp := employee.Employee{
		ID:             uuid.NewString(),
		AreaID:         e.fieldArea.ID,
		Identification: fmt.Sprintf("10203%03d", len(e.empRepo.employees)),
		FullName:       name,
		Status:         employee.EmploymentStatusActive,
	}
	e.empRepo.employees[emp.ID] = emp
	return emp
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func fPtr(f float64) *float64 { return &f }

const testDate = "2025-03-10"

func TestBulkCreateCommitsFullBatch(t *testing.T) {
	e := newEnv()
	alice := e.addEmployee("Alice Moreno")
	bruno := e.addEmployee("Bruno Castillo")

	req := attendance.BulkCreateRequest{
		Date: testDate,
		Records: []attendance.BulkRecordInput{
			{EmployeeID: alice.ID, EntryTime: strPtr("06:30"), ExitTime: strPtr("16:00")},
			{EmployeeID: bruno.ID, EntryTime: strPtr("06:30"), ExitTime: strPtr("16:00"), LunchDurationMinutes: intPtr(60)},
		},
	}

	result, err := e.svc.BulkCreate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 0, result.Errors)
	assert.Equal(t, 100.0, result.SuccessRate)
	assert.NotEmpty(t, result.BatchID)
	assert.Equal(t, 1, e.txRunner.calls)

	require.Len(t, result.Committed, 2)
	assert.Equal(t, "North Field", result.Committed[0].AreaName)
	// 06:30 to 16:00 is 9.5h elapsed; 30min lunch leaves 9.0
	assert.Equal(t, 9.0, result.Committed[0].WorkedHours)
	// explicit 60min lunch overrides the area default
	assert.Equal(t, 8.5, result.Committed[1].WorkedHours)
}

func TestBulkCreateRejectsUnknownEmployees(t *testing.T) {
	e := newEnv()
	alice := e.addEmployee("Alice Moreno")
	ghost := uuid.NewString()

	req := attendance.BulkCreateRequest{
		Date: testDate,
		Records: []attendance.BulkRecordInput{
			{EmployeeID: alice.ID, EntryTime: strPtr("06:30"), ExitTime: strPtr("16:00")},
			{EmployeeID: ghost, EntryTime: strPtr("06:30"), ExitTime: strPtr("16:00")},
		},
	}

	result, err := e.svc.BulkCreate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 50.0, result.SuccessRate)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, 1, result.Rejected[0].Index)
	assert.Equal(t, ghost, result.Rejected[0].EmployeeID)
	assert.Equal(t, employee.ErrEmployeeNotFound.Error(), result.Rejected[0].Reason)
}

func TestBulkCreateRejectsInactiveEmployee(t *testing.T) {
	e := newEnv()
	retired := e.addEmployee("Retired Worker")
	retired.Status = employee.EmploymentStatusInactive
	e.empRepo.employees[retired.ID] = retired

	req := attendance.BulkCreateRequest{
		Date: testDate,
		Records: []attendance.BulkRecordInput{
			{EmployeeID: retired.ID, EntryTime: strPtr("06:30"), ExitTime: strPtr("16:00")},
		},
	}

	result, err := e.svc.BulkCreate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 1, result.Errors)
}

func TestBulkCreateRetryRejectsAlreadyRegistered(t *testing.T) {
	e := newEnv()
	alice := e.addEmployee("Alice Moreno")

	req := attendance.BulkCreateRequest{
		Date: testDate,
		Records: []attendance.BulkRecordInput{
			{EmployeeID: alice.ID, EntryTime: strPtr("06:30"), ExitTime: strPtr("16:00")},
		},
	}

	first, err := e.svc.BulkCreate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Processed)

	second, err := e.svc.BulkCreate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Processed)
	require.Len(t, second.Rejected, 1)
	assert.Equal(t, attendance.ErrAlreadyRegistered.Error(), second.Rejected[0].Reason)

	// the original record is untouched
	assert.Len(t, e.attRepo.bundles, 1)
}

func TestBulkCreateIntraBatchDuplicateFirstWins(t *testing.T) {
	e := newEnv()
	alice := e.addEmployee("Alice Moreno")

	req := attendance.BulkCreateRequest{
		Date: testDate,
		Records: []attendance.BulkRecordInput{
			{EmployeeID: alice.ID, EntryTime: strPtr("06:30"), ExitTime: strPtr("16:00")},
			{EmployeeID: alice.ID, EntryTime: strPtr("07:00"), ExitTime: strPtr("17:00")},
		},
	}

	result, err := e.svc.BulkCreate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, 1, result.Rejected[0].Index)

	// first occurrence committed
	key := bundleKey(alice.ID, mustDate(t))
	stored := e.attRepo.bundles[key]
	assert.Equal(t, "06:30", *stored.Record.EntryTime)
}

func TestBulkCreateStructuralRejections(t *testing.T) {
	e := newEnv()
	alice := e.addEmployee("Alice Moreno")

	req := attendance.BulkCreateRequest{
		Date: testDate,
		Records: []attendance.BulkRecordInput{
			{EmployeeID: "not-a-uuid"},
			{EmployeeID: alice.ID, EntryTime: strPtr("08:00"), ExitTime: strPtr("08:00")},
		},
	}

	result, err := e.svc.BulkCreate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 2, result.Errors)
	// nothing reached the transaction
	assert.Equal(t, 0, e.txRunner.calls)
}

func TestBulkCreateVacationDay(t *testing.T) {
	e := newEnv()
	alice := e.addEmployee("Alice Moreno")

	req := attendance.BulkCreateRequest{
		Date: testDate,
		Records: []attendance.BulkRecordInput{
			{EmployeeID: alice.ID, IsVacation: true},
		},
	}

	result, err := e.svc.BulkCreate(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 1, result.Processed)
	assert.Equal(t, 0.0, result.Committed[0].WorkedHours)

	stored := e.attRepo.bundles[bundleKey(alice.ID, mustDate(t))]
	assert.True(t, stored.Record.IsVacation)
	assert.Nil(t, stored.Extra)
}

func TestBulkCreateOvernightShift(t *testing.T) {
	e := newEnv()
	alice := e.addEmployee("Alice Moreno")

	req := attendance.BulkCreateRequest{
		Date: testDate,
		Records: []attendance.BulkRecordInput{
			{EmployeeID: alice.ID, EntryTime: strPtr("22:00"), ExitTime: strPtr("06:00"), LunchDurationMinutes: intPtr(0)},
		},
	}

	result, err := e.svc.BulkCreate(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 1, result.Processed)
	assert.Equal(t, 8.0, result.Committed[0].WorkedHours)
}

func TestBulkCreateOvertimeSplit(t *testing.T) {
	e := newEnv()
	alice := e.addEmployee("Alice Moreno")

	// 06:00 to 17:30 with 30min lunch is 11 worked hours: 8 standard,
	// 2 supplementary, 1 extraordinary.
	req := attendance.BulkCreateRequest{
		Date: testDate,
		Records: []attendance.BulkRecordInput{
			{EmployeeID: alice.ID, EntryTime: strPtr("06:00"), ExitTime: strPtr("17:30")},
		},
	}

	result, err := e.svc.BulkCreate(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 1, result.Processed)
	assert.Equal(t, 11.0, result.Committed[0].WorkedHours)

	stored := e.attRepo.bundles[bundleKey(alice.ID, mustDate(t))]
	require.NotNil(t, stored.Extra)
	assert.True(t, stored.Extra.SupplementaryHours.Equal(decimal.NewFromFloat(2)))
	assert.True(t, stored.Extra.ExtraordinaryHours.Equal(decimal.NewFromFloat(1)))
	assert.True(t, stored.Extra.NightHours.IsZero())
}

func TestBulkCreatePermissionDeduction(t *testing.T) {
	e := newEnv()
	alice := e.addEmployee("Alice Moreno")

	req := attendance.BulkCreateRequest{
		Date: testDate,
		Records: []attendance.BulkRecordInput{
			{
				EmployeeID:       alice.ID,
				EntryTime:        strPtr("06:30"),
				ExitTime:         strPtr("16:00"),
				PermissionHours:  fPtr(2),
				PermissionReason: strPtr("medical appointment"),
			},
		},
	}

	result, err := e.svc.BulkCreate(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 1, result.Processed)
	assert.Equal(t, 7.0, result.Committed[0].WorkedHours)
}

func TestBulkCreateStorageFailureAbortsBatch(t *testing.T) {
	e := newEnv()
	alice := e.addEmployee("Alice Moreno")
	e.attRepo.failWith = errors.New("connection reset")

	req := attendance.BulkCreateRequest{
		Date: testDate,
		Records: []attendance.BulkRecordInput{
			{EmployeeID: alice.ID, EntryTime: strPtr("06:30"), ExitTime: strPtr("16:00")},
		},
	}

	_, err := e.svc.BulkCreate(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Empty(t, e.attRepo.bundles)
}

func TestBulkCreateRejectsOversizedBatch(t *testing.T) {
	e := newEnv()
	records := make([]attendance.BulkRecordInput, attendance.MaxBulkRecords+1)
	for i := range records {
		records[i] = attendance.BulkRecordInput{EmployeeID: uuid.NewString(), IsVacation: true}
	}

	_, err := e.svc.BulkCreate(context.Background(), attendance.BulkCreateRequest{Date: testDate, Records: records})
	require.Error(t, err)
}

func TestBuildTemplate(t *testing.T) {
	e := newEnv()
	alice := e.addEmployee("Alice Moreno")
	e.addEmployee("Bruno Castillo")

	req := attendance.TemplateRequest{Date: testDate, AreaIDs: []string{e.fieldArea.ID}}
	resp, err := e.svc.BuildTemplate(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, resp.Areas, 1)
	ar := resp.Areas[0]
	assert.Equal(t, "North Field", ar.AreaName)
	require.Len(t, ar.Employees, 2)
	for _, emp := range ar.Employees {
		assert.Equal(t, "06:30", emp.EntryTime)
		assert.Equal(t, "16:00", emp.ExitTime)
		assert.Equal(t, 30, emp.LunchDurationMinutes)
		assert.Equal(t, 1, emp.FoodAllowance.Lunch)
		assert.False(t, emp.HasExistingRecord)
	}

	// committing one employee flips the flag
	_, err = e.svc.BulkCreate(context.Background(), attendance.BulkCreateRequest{
		Date: testDate,
		Records: []attendance.BulkRecordInput{
			{EmployeeID: alice.ID, EntryTime: strPtr("06:30"), ExitTime: strPtr("16:00")},
		},
	})
	require.NoError(t, err)

	resp, err = e.svc.BuildTemplate(context.Background(), req)
	require.NoError(t, err)
	flagged := 0
	for _, emp := range resp.Areas[0].Employees {
		if emp.HasExistingRecord {
			flagged++
			assert.Equal(t, alice.ID, emp.EmployeeID)
		}
	}
	assert.Equal(t, 1, flagged)
}

func TestBuildTemplateUnknownAreas(t *testing.T) {
	e := newEnv()
	req := attendance.TemplateRequest{Date: testDate, AreaIDs: []string{uuid.NewString()}}
	_, err := e.svc.BuildTemplate(context.Background(), req)
	assert.ErrorIs(t, err, attendance.ErrNoAreasFound)
}

func TestVerifyCompletion(t *testing.T) {
	e := newEnv()
	alice := e.addEmployee("Alice Moreno")
	e.addEmployee("Bruno Castillo")

	_, err := e.svc.BulkCreate(context.Background(), attendance.BulkCreateRequest{
		Date: testDate,
		Records: []attendance.BulkRecordInput{
			{EmployeeID: alice.ID, EntryTime: strPtr("06:30"), ExitTime: strPtr("16:00")},
		},
	})
	require.NoError(t, err)

	// the fake join fields come from the stored record
	key := bundleKey(alice.ID, mustDate(t))
	b := e.attRepo.bundles[key]
	b.Record.AreaID = &e.fieldArea.ID
	b.Record.EmployeeName = &alice.FullName
	b.Record.EmployeeIdentification = &alice.Identification
	e.attRepo.bundles[key] = b

	resp, err := e.svc.Verify(context.Background(), attendance.VerifyRequest{Date: testDate})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.TotalActiveEmployees)
	assert.Equal(t, 1, resp.TotalRegistered)
	assert.Equal(t, 50.0, resp.CompletionRate)
	require.Len(t, resp.Areas, 1)
	assert.Equal(t, 50.0, resp.Areas[0].CompletionRate)
	require.Len(t, resp.Areas[0].Records, 1)
	assert.Equal(t, alice.ID, resp.Areas[0].Records[0].EmployeeID)
	assert.Equal(t, 9.0, resp.Areas[0].Records[0].WorkedHours)
}

func TestListAttendanceDefaultsPagination(t *testing.T) {
	e := newEnv()
	alice := e.addEmployee("Alice Moreno")

	_, err := e.svc.BulkCreate(context.Background(), attendance.BulkCreateRequest{
		Date: testDate,
		Records: []attendance.BulkRecordInput{
			{EmployeeID: alice.ID, EntryTime: strPtr("06:30"), ExitTime: strPtr("16:00")},
		},
	})
	require.NoError(t, err)

	// a zero-value filter gets the page/limit defaults before any math runs
	resp, err := e.svc.ListAttendance(context.Background(), attendance.AttendanceFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.Limit)
	assert.Equal(t, int64(1), resp.TotalCount)
	assert.Equal(t, 1, resp.TotalPages)
	require.Len(t, resp.Attendances, 1)
	assert.Equal(t, 9.0, resp.Attendances[0].WorkedHours)

	_, err = e.svc.ListAttendance(context.Background(), attendance.AttendanceFilter{Limit: 101})
	assert.Error(t, err)
}

func TestVerifyEmptyAreaReportsZeroRate(t *testing.T) {
	e := newEnv()

	resp, err := e.svc.Verify(context.Background(), attendance.VerifyRequest{Date: testDate})
	require.NoError(t, err)
	assert.Equal(t, 0.0, resp.CompletionRate)
}

func mustDate(t *testing.T) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", testDate)
	require.NoError(t, err)
	return d
}
