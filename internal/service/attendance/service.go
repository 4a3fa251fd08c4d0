package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/agrofield/attendance-backend-go/internal/domain/area"
	"github.com/agrofield/attendance-backend-go/internal/domain/attendance"
	"github.com/agrofield/attendance-backend-go/internal/domain/employee"
	"github.com/agrofield/attendance-backend-go/internal/fixtures"
	"github.com/agrofield/attendance-backend-go/internal/pkg/timecalc"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxReportedMissingIDs bounds the unknown-employee list in the batch log
// summary; the remainder is reported as a count.
const maxReportedMissingIDs = 10

// maxReportedRejections bounds the rejected list returned to the caller; the
// full count is always in RejectedTotal.
const maxReportedRejections = 50

type AttendanceServiceImpl struct {
	txRunner attendance.TxRunner
	attendance.AttendanceRepository
	employee.EmployeeRepository
	area.AreaRepository
}

// candidate is one record that survived validation, carrying everything the
// commit loop needs.
type candidate struct {
	index  int
	bundle attendance.RecordBundle
	emp    employee.Employee
	area   area.Area
}

// BulkCreate implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) BulkCreate(ctx context.Context, req attendance.BulkCreateRequest) (attendance.BulkCreateResult, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return attendance.BulkCreateResult{}, err
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return attendance.BulkCreateResult{}, fmt.Errorf("failed to parse batch date: %w", err)
	}

	registeredBy := registeredByFromContext(ctx)

	var rejections []attendance.RejectedRecord
	reject := func(index int, employeeID, reason string) {
		rejections = append(rejections, attendance.RejectedRecord{
			Index:      index,
			EmployeeID: employeeID,
			Reason:     reason,
		})
	}

	// Structural validation and duplicate-within-batch detection. The first
	// occurrence of an employee wins; later ones are rejected.
	seen := make(map[string]bool, len(req.Records))
	pending := make([]int, 0, len(req.Records))
	for i := range req.Records {
		rec := &req.Records[i]
		if err := rec.Validate(); err != nil {
			reject(i, rec.EmployeeID, err.Error())
			continue
		}
		if seen[rec.EmployeeID] {
			reject(i, rec.EmployeeID, "employee appears more than once in this batch")
			continue
		}
		seen[rec.EmployeeID] = true
		pending = append(pending, i)
	}

	// Referential check: one bulk lookup for the whole batch.
	ids := make([]string, 0, len(pending))
	for _, i := range pending {
		ids = append(ids, req.Records[i].EmployeeID)
	}
	activeByID := make(map[string]employee.Employee, len(ids))
	if len(ids) > 0 {
		active, err := s.EmployeeRepository.ListActiveByIDs(ctx, ids)
		if err != nil {
			return attendance.BulkCreateResult{}, fmt.Errorf("failed to resolve employees: %w", err)
		}
		for _, emp := range active {
			activeByID[emp.ID] = emp
		}
	}

	var missing []string
	resolved := pending[:0]
	for _, i := range pending {
		if _, ok := activeByID[req.Records[i].EmployeeID]; !ok {
			reject(i, req.Records[i].EmployeeID, employee.ErrEmployeeNotFound.Error())
			missing = append(missing, req.Records[i].EmployeeID)
			continue
		}
		resolved = append(resolved, i)
	}
	logMissingEmployees(req.Date, missing)

	areaByID, err := s.areasForEmployees(ctx, activeByID)
	if err != nil {
		return attendance.BulkCreateResult{}, err
	}

	// Duplicate-against-storage pre-check, again one query per batch. The
	// unique constraint remains the safety net for concurrent submissions.
	remaining := make([]string, 0, len(resolved))
	for _, i := range resolved {
		remaining = append(remaining, req.Records[i].EmployeeID)
	}
	existing := make(map[string]bool)
	if len(remaining) > 0 {
		existingIDs, err := s.AttendanceRepository.ListEmployeeIDsWithRecord(ctx, date, remaining)
		if err != nil {
			return attendance.BulkCreateResult{}, fmt.Errorf("failed to check existing records: %w", err)
		}
		for _, id := range existingIDs {
			existing[id] = true
		}
	}

	candidates := make([]candidate, 0, len(resolved))
	for _, i := range resolved {
		rec := &req.Records[i]
		if existing[rec.EmployeeID] {
			reject(i, rec.EmployeeID, attendance.ErrAlreadyRegistered.Error())
			continue
		}

		emp := activeByID[rec.EmployeeID]
		ar := areaByID[emp.AreaID]
		bundle, err := s.buildBundle(rec, date, emp, ar, registeredBy)
		if err != nil {
			reject(i, rec.EmployeeID, err.Error())
			continue
		}
		candidates = append(candidates, candidate{index: i, bundle: bundle, emp: emp, area: ar})
	}

	// One transaction for the whole batch. Conflicts discovered mid-commit
	// (a concurrent batch won the race) are per-record rejections rolled
	// back to their savepoint; any other storage error aborts everything.
	committed := make([]attendance.CommittedRecord, 0, len(candidates))
	if len(candidates) > 0 {
		err = s.txRunner.WithinTransaction(ctx, func(txCtx context.Context) error {
			for _, c := range candidates {
				created, err := s.AttendanceRepository.CreateBundle(txCtx, c.bundle)
				if err != nil {
					if errors.Is(err, attendance.ErrAlreadyRegistered) {
						reject(c.index, c.emp.ID, attendance.ErrAlreadyRegistered.Error())
						continue
					}
					return fmt.Errorf("failed to create attendance for employee %s: %w", c.emp.ID, err)
				}
				committed = append(committed, attendance.CommittedRecord{
					EmployeeID:     created.EmployeeID,
					Identification: c.emp.Identification,
					FullName:       c.emp.FullName,
					AreaName:       c.area.Name,
					WorkedHours:    c.bundle.Record.WorkedHours.InexactFloat64(),
					Status:         "created",
				})
			}
			return nil
		})
		if err != nil {
			return attendance.BulkCreateResult{}, fmt.Errorf("bulk attendance batch aborted after %s: %w", time.Since(start), err)
		}
	}

	sort.Slice(rejections, func(a, b int) bool { return rejections[a].Index < rejections[b].Index })

	result := attendance.BulkCreateResult{
		BatchID:       uuid.NewString(),
		Date:          req.Date,
		Processed:     len(committed),
		Errors:        len(rejections),
		SuccessRate:   successRate(len(committed), len(rejections)),
		ElapsedMS:     time.Since(start).Milliseconds(),
		Committed:     committed,
		Rejected:      rejections,
		RejectedTotal: len(rejections),
	}
	if len(result.Rejected) > maxReportedRejections {
		result.Rejected = result.Rejected[:maxReportedRejections]
	}

	slog.Info("bulk attendance batch processed",
		"batch_id", result.BatchID,
		"date", result.Date,
		"processed", result.Processed,
		"errors", result.Errors,
		"elapsed_ms", result.ElapsedMS,
	)

	return result, nil
}

// buildBundle resolves area defaults, computes worked hours and the overtime
// split, and assembles the rows for one record.
func (s *AttendanceServiceImpl) buildBundle(rec *attendance.BulkRecordInput, date time.Time, emp employee.Employee, ar area.Area, registeredBy *string) (attendance.RecordBundle, error) {
	lunchMinutes := fixtures.DefaultLunchMinutes
	if ar.DefaultLunchMinutes > 0 {
		lunchMinutes = ar.DefaultLunchMinutes
	}
	if rec.LunchDurationMinutes != nil {
		lunchMinutes = *rec.LunchDurationMinutes
	}

	permissionHours := 0.0
	if rec.PermissionHours != nil {
		permissionHours = *rec.PermissionHours
	}

	// Vacation days carry zero worked hours whatever the clock fields say,
	// and never get an overtime split.
	workedHours := 0.0
	if !rec.IsVacation {
		entry, exit := "", ""
		if rec.EntryTime != nil {
			entry = *rec.EntryTime
		}
		if rec.ExitTime != nil {
			exit = *rec.ExitTime
		}
		var err error
		workedHours, err = timecalc.ComputeWorkedHours(entry, exit, lunchMinutes, permissionHours)
		if err != nil {
			return attendance.RecordBundle{}, err
		}
	}

	record := attendance.AttendanceRecord{
		EmployeeID:           emp.ID,
		Date:                 date,
		EntryTime:            rec.EntryTime,
		ExitTime:             rec.ExitTime,
		LunchDurationMinutes: lunchMinutes,
		WorkedHours:          timecalc.RoundHours(workedHours),
		IsVacation:           rec.IsVacation,
		PermissionHours:      decimal.NewFromFloat(permissionHours).Round(2),
		PermissionReason:     rec.PermissionReason,
		RegisteredBy:         registeredBy,
	}

	food := attendance.FoodAllowance{}
	if rec.FoodAllowance != nil {
		food = attendance.FoodAllowance{
			Breakfast:           rec.FoodAllowance.Breakfast,
			ReinforcedBreakfast: rec.FoodAllowance.ReinforcedBreakfast,
			Snack:               rec.FoodAllowance.Snack,
			AfternoonSnack:      rec.FoodAllowance.AfternoonSnack,
			DryMeal:             rec.FoodAllowance.DryMeal,
			Lunch:               rec.FoodAllowance.Lunch,
			TransportAmount:     decimal.NewFromFloat(rec.FoodAllowance.TransportAmount).Round(2),
		}
	}

	var extra *attendance.ExtraHours
	if !rec.IsVacation {
		split := timecalc.ClassifyOvertime(workedHours, ar.DefaultWorkingHours.InexactFloat64())
		if !split.IsZero() {
			extra = &attendance.ExtraHours{
				NightHours:         timecalc.RoundHours(split.NightHours),
				SupplementaryHours: timecalc.RoundHours(split.SupplementaryHours),
				ExtraordinaryHours: timecalc.RoundHours(split.ExtraordinaryHours),
			}
		}
	}

	return attendance.RecordBundle{Record: record, Food: food, Extra: extra}, nil
}

// areasForEmployees bulk-loads the areas referenced by the resolved
// employees.
func (s *AttendanceServiceImpl) areasForEmployees(ctx context.Context, employees map[string]employee.Employee) (map[string]area.Area, error) {
	areaIDs := make([]string, 0, len(employees))
	seen := make(map[string]bool, len(employees))
	for _, emp := range employees {
		if !seen[emp.AreaID] {
			seen[emp.AreaID] = true
			areaIDs = append(areaIDs, emp.AreaID)
		}
	}

	areaByID := make(map[string]area.Area, len(areaIDs))
	if len(areaIDs) == 0 {
		return areaByID, nil
	}
	areas, err := s.AreaRepository.GetByIDs(ctx, areaIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve areas: %w", err)
	}
	for _, ar := range areas {
		areaByID[ar.ID] = ar
	}
	return areaByID, nil
}

// BuildTemplate implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) BuildTemplate(ctx context.Context, req attendance.TemplateRequest) (attendance.TemplateResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.TemplateResponse{}, err
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return attendance.TemplateResponse{}, fmt.Errorf("failed to parse template date: %w", err)
	}

	areas, err := s.AreaRepository.GetByIDs(ctx, req.AreaIDs)
	if err != nil {
		return attendance.TemplateResponse{}, fmt.Errorf("failed to get areas: %w", err)
	}
	if len(areas) == 0 {
		return attendance.TemplateResponse{}, attendance.ErrNoAreasFound
	}

	employees, err := s.EmployeeRepository.ListActiveByAreaIDs(ctx, req.AreaIDs)
	if err != nil {
		return attendance.TemplateResponse{}, fmt.Errorf("failed to list active employees: %w", err)
	}

	existing, err := s.existingRecordSet(ctx, date, employees)
	if err != nil {
		return attendance.TemplateResponse{}, err
	}

	byArea := make(map[string][]attendance.TemplateEmployee)
	for _, emp := range employees {
		byArea[emp.AreaID] = append(byArea[emp.AreaID], attendance.TemplateEmployee{
			EmployeeID:        emp.ID,
			Identification:    emp.Identification,
			FullName:          emp.FullName,
			PermissionHours:   fixtures.DefaultPermissionHours,
			FoodAllowance:     fixtures.DefaultFoodAllowance(),
			HasExistingRecord: existing[emp.ID],
		})
	}

	resp := attendance.TemplateResponse{Date: req.Date}
	for _, ar := range areas {
		entryTime, exitTime, lunchMinutes := areaDefaults(ar)
		entries := byArea[ar.ID]
		for i := range entries {
			entries[i].EntryTime = entryTime
			entries[i].ExitTime = exitTime
			entries[i].LunchDurationMinutes = lunchMinutes
		}
		resp.Areas = append(resp.Areas, attendance.TemplateArea{
			AreaID:    ar.ID,
			AreaName:  ar.Name,
			Employees: entries,
		})
	}

	return resp, nil
}

// Verify implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Verify(ctx context.Context, req attendance.VerifyRequest) (attendance.VerifyResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.VerifyResponse{}, err
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return attendance.VerifyResponse{}, fmt.Errorf("failed to parse verification date: %w", err)
	}

	var areas []area.Area
	if len(req.AreaIDs) > 0 {
		areas, err = s.AreaRepository.GetByIDs(ctx, req.AreaIDs)
	} else {
		areas, err = s.AreaRepository.ListAll(ctx)
	}
	if err != nil {
		return attendance.VerifyResponse{}, fmt.Errorf("failed to get areas: %w", err)
	}
	if len(areas) == 0 {
		return attendance.VerifyResponse{}, attendance.ErrNoAreasFound
	}

	areaIDs := make([]string, 0, len(areas))
	for _, ar := range areas {
		areaIDs = append(areaIDs, ar.ID)
	}

	employees, err := s.EmployeeRepository.ListActiveByAreaIDs(ctx, areaIDs)
	if err != nil {
		return attendance.VerifyResponse{}, fmt.Errorf("failed to list active employees: %w", err)
	}
	activeByArea := make(map[string]int)
	for _, emp := range employees {
		activeByArea[emp.AreaID]++
	}

	records, err := s.AttendanceRepository.ListByDateAndAreaIDs(ctx, date, areaIDs)
	if err != nil {
		return attendance.VerifyResponse{}, fmt.Errorf("failed to list attendance records: %w", err)
	}
	recordsByArea := make(map[string][]attendance.VerifyRecord)
	for _, rec := range records {
		areaID := ""
		if rec.AreaID != nil {
			areaID = *rec.AreaID
		}
		recordsByArea[areaID] = append(recordsByArea[areaID], attendance.VerifyRecord{
			EmployeeID:     rec.EmployeeID,
			Identification: strOrEmpty(rec.EmployeeIdentification),
			FullName:       strOrEmpty(rec.EmployeeName),
			WorkedHours:    rec.WorkedHours.InexactFloat64(),
			IsVacation:     rec.IsVacation,
		})
	}

	resp := attendance.VerifyResponse{Date: req.Date}
	for _, ar := range areas {
		active := activeByArea[ar.ID]
		recs := recordsByArea[ar.ID]
		resp.Areas = append(resp.Areas, attendance.VerifyArea{
			AreaID:          ar.ID,
			AreaName:        ar.Name,
			ActiveEmployees: active,
			Registered:      len(recs),
			CompletionRate:  completionRate(len(recs), active),
			Records:         recs,
		})
		resp.TotalActiveEmployees += active
		resp.TotalRegistered += len(recs)
	}
	resp.CompletionRate = completionRate(resp.TotalRegistered, resp.TotalActiveEmployees)

	return resp, nil
}

// ListAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	// Validate applies the page/limit/sort defaults, so the pagination math
	// below never divides by zero even when the caller skipped it.
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	records, total, err := s.AttendanceRepository.List(ctx, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendance records: %w", err)
	}

	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, mapRecordToResponse(rec))
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  int(math.Ceil(float64(total) / float64(filter.Limit))),
		Attendances: responses,
	}, nil
}

func mapRecordToResponse(rec attendance.AttendanceRecord) attendance.AttendanceResponse {
	return attendance.AttendanceResponse{
		ID:                   rec.ID,
		EmployeeID:           rec.EmployeeID,
		EmployeeName:         strOrEmpty(rec.EmployeeName),
		Identification:       rec.EmployeeIdentification,
		AreaName:             rec.AreaName,
		Date:                 rec.Date.Format("2006-01-02"),
		EntryTime:            rec.EntryTime,
		ExitTime:             rec.ExitTime,
		LunchDurationMinutes: rec.LunchDurationMinutes,
		WorkedHours:          rec.WorkedHours.InexactFloat64(),
		IsVacation:           rec.IsVacation,
		PermissionHours:      rec.PermissionHours.InexactFloat64(),
		PermissionReason:     rec.PermissionReason,
		CreatedAt:            rec.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func areaDefaults(ar area.Area) (entryTime, exitTime string, lunchMinutes int) {
	entryTime = ar.DefaultEntryTime
	if entryTime == "" {
		entryTime = fixtures.DefaultEntryTime
	}
	exitTime = ar.DefaultExitTime
	if exitTime == "" {
		exitTime = fixtures.DefaultExitTime
	}
	lunchMinutes = ar.DefaultLunchMinutes
	if lunchMinutes <= 0 {
		lunchMinutes = fixtures.DefaultLunchMinutes
	}
	return entryTime, exitTime, lunchMinutes
}

func (s *AttendanceServiceImpl) existingRecordSet(ctx context.Context, date time.Time, employees []employee.Employee) (map[string]bool, error) {
	existing := make(map[string]bool, len(employees))
	if len(employees) == 0 {
		return existing, nil
	}
	ids := make([]string, 0, len(employees))
	for _, emp := range employees {
		ids = append(ids, emp.ID)
	}
	existingIDs, err := s.AttendanceRepository.ListEmployeeIDsWithRecord(ctx, date, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing records: %w", err)
	}
	for _, id := range existingIDs {
		existing[id] = true
	}
	return existing, nil
}

// registeredByFromContext reads the coordinator's user id from the verified
// token when one is present. The service stays callable without a token so
// the audit field is best-effort, not an auth gate.
func registeredByFromContext(ctx context.Context) *string {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return nil
	}
	if userID, ok := claims["user_id"].(string); ok && userID != "" {
		return &userID
	}
	return nil
}

func logMissingEmployees(date string, missing []string) {
	if len(missing) == 0 {
		return
	}
	reported := missing
	additional := 0
	if len(reported) > maxReportedMissingIDs {
		reported = reported[:maxReportedMissingIDs]
		additional = len(missing) - maxReportedMissingIDs
	}
	slog.Warn("bulk attendance: unknown or inactive employees",
		"date", date,
		"employee_ids", reported,
		"additional", additional,
	)
}

func successRate(committed, rejected int) float64 {
	total := committed + rejected
	if total == 0 {
		return 0
	}
	return math.Round(float64(committed)/float64(total)*10000) / 100
}

func completionRate(registered, active int) float64 {
	if active == 0 {
		return 0
	}
	return math.Round(float64(registered)/float64(active)*10000) / 100
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func NewAttendanceService(
	txRunner attendance.TxRunner,
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	areaRepo area.AreaRepository,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		txRunner:             txRunner,
		AttendanceRepository: attendanceRepo,
		EmployeeRepository:   employeeRepo,
		AreaRepository:       areaRepo,
	}
}
