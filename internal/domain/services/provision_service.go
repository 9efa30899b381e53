package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yusufturaev707/faceid/internal/domain/models"
	"github.com/yusufturaev707/faceid/internal/infrastructure/config"
	"github.com/yusufturaev707/faceid/internal/infrastructure/hikvision"
	"github.com/yusufturaev707/faceid/internal/infrastructure/picture"
	"github.com/yusufturaev707/faceid/pkg/logger"
)

// checkpointInterval is how many roster records are pushed between binding
// saves. A crash loses at most this much progress.
const checkpointInterval = 20

// DeviceClient abstracts one controller conversation for the push engine so
// tests inject fakes. DeviceSession satisfies it.
type DeviceClient interface {
	CheckActivated(ctx context.Context) (bool, error)
	DeleteAllPersons(ctx context.Context) (bool, error)
	AddPerson(ctx context.Context, p hikvision.PersonRecord) (*hikvision.Result, error)
	UploadFace(ctx context.Context, fdid, employeeNo string, jpeg []byte) (*hikvision.Result, error)
	Reset()
}

// SessionFactory creates a device client for one turnstile
type SessionFactory func(t *models.Turnstile) DeviceClient

// BindingSaver checkpoints door-binding progress. The default writes through
// gorm; tests inject a recorder.
type BindingSaver interface {
	SaveBinding(binding *models.ExamTurnstile) error
}

type dbBindingSaver struct {
	db *gorm.DB
}

func (w dbBindingSaver) SaveBinding(binding *models.ExamTurnstile) error {
	return w.db.Save(binding).Error
}

// StaffPushSummary reports a region-wide staff push
type StaffPushSummary struct {
	Turnstiles int `json:"turnstiles"`
	Skipped    int `json:"skipped"`
	Persons    int `json:"persons"`
	PersonsOK  int `json:"persons_ok"`
	ImagesOK   int `json:"images_ok"`
}

// InterfaceProvisionService defines the bulk provisioning interface
type InterfaceProvisionService interface {
	StartPush(examID uint, wipe bool) (string, error)
	RetryFailed(examID uint) (string, error)
	PushStaff(ctx context.Context, regionID uint) (*StaffPushSummary, error)
	Report(examID uint) ([]models.ExamTurnstile, error)
	Cancel(runID string) bool
}

// ProvisionService synchronizes rosters and face images to the door
// controllers. Doors are pushed in parallel, records within one door
// strictly sequentially: the backoff state is per door session and the
// devices cannot handle concurrent writes.
type ProvisionService struct {
	DB       *gorm.DB
	Config   *config.Config
	Exams    InterfaceExamService
	Students InterfaceStudentService
	Sessions SessionFactory
	Bindings BindingSaver
	Sleep    func(time.Duration)

	mu        sync.Mutex
	busyDoors map[uint]bool
	runs      map[string]context.CancelFunc
}

// NewProvisionService creates the provisioning engine. sessions may be nil
// to use real device sessions.
func NewProvisionService(db *gorm.DB, cfg *config.Config, exams InterfaceExamService,
	students InterfaceStudentService, sessions SessionFactory) InterfaceProvisionService {
	s := &ProvisionService{
		DB:        db,
		Config:    cfg,
		Exams:     exams,
		Students:  students,
		Sessions:  sessions,
		Bindings:  dbBindingSaver{db: db},
		Sleep:     time.Sleep,
		busyDoors: make(map[uint]bool),
		runs:      make(map[string]context.CancelFunc),
	}
	if s.Sessions == nil {
		s.Sessions = func(t *models.Turnstile) DeviceClient {
			user := t.Username
			if user == "" {
				user = cfg.DeviceUsername
			}
			pass := t.Password
			if pass == "" {
				pass = cfg.DevicePassword
			}
			return hikvision.NewDeviceSession(deviceHost(t), user, pass, cfg.DeviceTimeout, nil)
		}
	}
	return s
}

// StartPush launches a full roster push for the exam in the background and
// returns the run ID. Fails fast when any of the exam's doors is already
// being pushed.
func (s *ProvisionService) StartPush(examID uint, wipe bool) (string, error) {
	exam, err := s.Exams.RequirePushable(examID)
	if err != nil {
		return "", err
	}

	bindings, err := s.Exams.Bindings(examID)
	if err != nil {
		return "", err
	}
	if len(bindings) == 0 {
		return "", fmt.Errorf("exam %d has no door bindings", examID)
	}

	if err := s.reserveDoors(bindings); err != nil {
		return "", err
	}

	runID := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.runs[runID] = cancel
	s.mu.Unlock()

	go func() {
		defer s.finishRun(runID, bindings)

		var wg sync.WaitGroup
		for i := range bindings {
			wg.Add(1)
			go func(binding models.ExamTurnstile) {
				defer wg.Done()
				s.pushDoor(ctx, exam, binding, wipe)
			}(bindings[i])
		}
		wg.Wait()

		if err := s.Exams.AdvanceAfterPush(examID); err != nil {
			logger.Error("exam %d state advance after push: %v", examID, err)
		}
		logger.Info("push run %s for exam %d finished", runID, examID)
	}()

	logger.Info("push run %s started for exam %d (%d doors, wipe=%v)", runID, examID, len(bindings), wipe)
	return runID, nil
}

// RetryFailed re-pushes only the stored failed-ID lists of the exam's
// bindings, updating the lists and counters in place
func (s *ProvisionService) RetryFailed(examID uint) (string, error) {
	exam, err := s.Exams.RequirePushable(examID)
	if err != nil {
		return "", err
	}

	all, err := s.Exams.Bindings(examID)
	if err != nil {
		return "", err
	}
	var bindings []models.ExamTurnstile
	for _, b := range all {
		if b.UnpushedPersonPinfls != "" || b.UnpushedImagePinfls != "" {
			bindings = append(bindings, b)
		}
	}
	if len(bindings) == 0 {
		return "", fmt.Errorf("exam %d has no failed records to retry", examID)
	}

	if err := s.reserveDoors(bindings); err != nil {
		return "", err
	}

	runID := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.runs[runID] = cancel
	s.mu.Unlock()

	go func() {
		defer s.finishRun(runID, bindings)

		var wg sync.WaitGroup
		for i := range bindings {
			wg.Add(1)
			go func(binding models.ExamTurnstile) {
				defer wg.Done()
				s.retryDoor(ctx, exam, binding)
			}(bindings[i])
		}
		wg.Wait()

		if err := s.Exams.AdvanceAfterPush(examID); err != nil {
			logger.Error("exam %d state advance after retry: %v", examID, err)
		}
		logger.Info("retry run %s for exam %d finished", runID, examID)
	}()

	return runID, nil
}

// Cancel stops a running push. Progress up to the last checkpoint is kept.
func (s *ProvisionService) Cancel(runID string) bool {
	s.mu.Lock()
	cancel, ok := s.runs[runID]
	s.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Report returns the exam's binding counters
func (s *ProvisionService) Report(examID uint) ([]models.ExamTurnstile, error) {
	return s.Exams.Bindings(examID)
}

func (s *ProvisionService) reserveDoors(bindings []models.ExamTurnstile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range bindings {
		if s.busyDoors[b.TurnstileID] {
			return fmt.Errorf("turnstile %d is already being pushed", b.TurnstileID)
		}
	}
	for _, b := range bindings {
		s.busyDoors[b.TurnstileID] = true
	}
	return nil
}

func (s *ProvisionService) finishRun(runID string, bindings []models.ExamTurnstile) {
	s.mu.Lock()
	for _, b := range bindings {
		delete(s.busyDoors, b.TurnstileID)
	}
	if cancel, ok := s.runs[runID]; ok {
		cancel()
		delete(s.runs, runID)
	}
	s.mu.Unlock()
}

// pushDoor runs one full sequential push against one controller
func (s *ProvisionService) pushDoor(ctx context.Context, exam *models.Exam, binding models.ExamTurnstile, wipe bool) {
	t := binding.Turnstile
	if t == nil {
		logger.Error("binding %d has no turnstile loaded", binding.ID)
		return
	}

	client := s.Sessions(t)
	activated, err := client.CheckActivated(ctx)
	if err != nil || !activated {
		// unreachable doors are skipped, reported distinctly from push failures
		logger.Warning("turnstile %s (%s) skipped: unreachable or not activated (%v)", t.Name, t.IPAddress, err)
		return
	}

	if wipe {
		if ok, err := client.DeleteAllPersons(ctx); err != nil || !ok {
			logger.Warning("roster wipe on %s failed: %v", t.IPAddress, err)
		}
	}

	roster, err := s.Students.ListForZone(exam.ID, t.ZoneID)
	if err != nil {
		logger.Error("roster load for exam %d zone %d: %v", exam.ID, t.ZoneID, err)
		return
	}

	binding.ExpectedCount = len(roster)
	binding.PushedPersonCount = 0
	binding.PushedImageCount = 0
	binding.ErrPersonCount = 0
	binding.ErrImageCount = 0
	var failedPersons, failedImages []string
	s.saveBinding(&binding, failedPersons, failedImages)

	backoff := hikvision.NewBackoffPolicy(s.Config.PushBaseDelay, s.Config.PushMaxDelay)

	for i := range roster {
		if ctx.Err() != nil {
			// the unattempted remainder goes to the failed list so a retry
			// can resume it instead of re-pushing the whole roster
			for j := i; j < len(roster); j++ {
				binding.ErrPersonCount++
				failedPersons = append(failedPersons, roster[j].Pinfl)
			}
			logger.Warning("push on %s cancelled after %d records, %d deferred to retry",
				t.IPAddress, i, len(roster)-i)
			break
		}
		st := &roster[i]

		s.Sleep(backoff.Delay())
		if s.pushPerson(ctx, client, backoff, exam, st) {
			binding.PushedPersonCount++
			ObservePush("person", "ok")

			// image only after the identity record landed
			if s.pushImage(ctx, client, backoff, st) {
				binding.PushedImageCount++
				ObservePush("image", "ok")
			} else {
				binding.ErrImageCount++
				failedImages = append(failedImages, st.Pinfl)
				ObservePush("image", "fail")
			}
		} else {
			binding.ErrPersonCount++
			failedPersons = append(failedPersons, st.Pinfl)
			ObservePush("person", "fail")
		}

		if (i+1)%checkpointInterval == 0 {
			s.saveBinding(&binding, failedPersons, failedImages)
		}
	}

	s.saveBinding(&binding, failedPersons, failedImages)
	logger.Info("push on %s done: %d/%d persons, %d/%d images",
		t.IPAddress, binding.PushedPersonCount, binding.ExpectedCount,
		binding.PushedImageCount, binding.ExpectedCount)
}

// retryDoor re-attempts only the stored failed lists of one binding
func (s *ProvisionService) retryDoor(ctx context.Context, exam *models.Exam, binding models.ExamTurnstile) {
	t := binding.Turnstile
	if t == nil {
		logger.Error("binding %d has no turnstile loaded", binding.ID)
		return
	}

	client := s.Sessions(t)
	activated, err := client.CheckActivated(ctx)
	if err != nil || !activated {
		logger.Warning("turnstile %s (%s) skipped on retry: unreachable (%v)", t.Name, t.IPAddress, err)
		return
	}

	backoff := hikvision.NewBackoffPolicy(s.Config.PushBaseDelay, s.Config.PushMaxDelay)
	failedPersons := splitPinfls(binding.UnpushedPersonPinfls)
	failedImages := splitPinfls(binding.UnpushedImagePinfls)

	var stillFailedPersons []string
	for _, pinfl := range failedPersons {
		if ctx.Err() != nil {
			stillFailedPersons = append(stillFailedPersons, pinfl)
			continue
		}
		st, err := s.Students.FindAny(exam.ID, pinfl)
		if err != nil || st == nil {
			logger.Warning("retry: student %s vanished from exam %d", pinfl, exam.ID)
			stillFailedPersons = append(stillFailedPersons, pinfl)
			continue
		}

		s.Sleep(backoff.Delay())
		if s.pushPerson(ctx, client, backoff, exam, st) {
			binding.PushedPersonCount++
			binding.ErrPersonCount--
			ObservePush("person", "ok")

			if s.pushImage(ctx, client, backoff, st) {
				binding.PushedImageCount++
				ObservePush("image", "ok")
			} else {
				binding.ErrImageCount++
				failedImages = appendUnique(failedImages, pinfl)
				ObservePush("image", "fail")
			}
		} else {
			stillFailedPersons = append(stillFailedPersons, pinfl)
			ObservePush("person", "fail")
		}
	}

	var stillFailedImages []string
	for _, pinfl := range failedImages {
		if ctx.Err() != nil {
			stillFailedImages = append(stillFailedImages, pinfl)
			continue
		}
		st, err := s.Students.FindAny(exam.ID, pinfl)
		if err != nil || st == nil {
			stillFailedImages = append(stillFailedImages, pinfl)
			continue
		}

		s.Sleep(backoff.Delay())
		if s.pushImage(ctx, client, backoff, st) {
			binding.PushedImageCount++
			binding.ErrImageCount--
			ObservePush("image", "ok")
		} else {
			stillFailedImages = append(stillFailedImages, pinfl)
			ObservePush("image", "fail")
		}
	}

	s.saveBinding(&binding, stillFailedPersons, stillFailedImages)
	logger.Info("retry on %s done: %d persons and %d images still failing",
		t.IPAddress, len(stillFailedPersons), len(stillFailedImages))
}

// PushStaff pushes a region's staff and proctors to every healthy turnstile
// of the region. Runs synchronously; the staff set is small.
func (s *ProvisionService) PushStaff(ctx context.Context, regionID uint) (*StaffPushSummary, error) {
	var staff []models.Supervisor
	err := s.DB.Where("region_id = ? AND status = ?", regionID, true).Find(&staff).Error
	if err != nil {
		return nil, err
	}
	if len(staff) == 0 {
		return nil, fmt.Errorf("region %d has no active staff", regionID)
	}

	var turnstiles []models.Turnstile
	err = s.DB.Joins("JOIN zones ON zones.id = turnstiles.zone_id").
		Where("zones.region_id = ?", regionID).Find(&turnstiles).Error
	if err != nil {
		return nil, err
	}

	summary := &StaffPushSummary{Turnstiles: len(turnstiles), Persons: len(staff) * len(turnstiles)}
	begin := time.Now().Format("2006-01-02T15:04:05")
	end := time.Now().AddDate(1, 0, 0).Format("2006-01-02T15:04:05")

	for i := range turnstiles {
		t := &turnstiles[i]
		client := s.Sessions(t)
		activated, err := client.CheckActivated(ctx)
		if err != nil || !activated {
			logger.Warning("staff push: turnstile %s skipped (%v)", t.IPAddress, err)
			summary.Skipped++
			continue
		}

		backoff := hikvision.NewBackoffPolicy(s.Config.PushBaseDelay, s.Config.PushMaxDelay)
		for j := range staff {
			sup := &staff[j]
			s.Sleep(backoff.Delay())

			record := hikvision.PersonRecord{
				EmployeeNo: sup.Pinfl,
				Name:       sup.FullName(),
				Gender:     sup.Gender,
				BeginTime:  begin,
				EndTime:    end,
			}
			if !s.attempt(ctx, backoff, client, func() (*hikvision.Result, error) {
				return client.AddPerson(ctx, record)
			}) {
				continue
			}
			summary.PersonsOK++

			if sup.ImageB64 == "" {
				continue
			}
			jpeg, err := s.prepareImage(sup.ImageB64)
			if err != nil {
				logger.Warning("staff push: image for %s unusable: %v", sup.Pinfl, err)
				continue
			}
			if s.attempt(ctx, backoff, client, func() (*hikvision.Result, error) {
				return client.UploadFace(ctx, s.Config.DeviceFaceFDID, sup.Pinfl, jpeg)
			}) {
				summary.ImagesOK++
			}
		}
	}
	return summary, nil
}

// pushPerson pushes one identity record with bounded retries
func (s *ProvisionService) pushPerson(ctx context.Context, client DeviceClient, backoff *hikvision.BackoffPolicy, exam *models.Exam, st *models.Student) bool {
	record := hikvision.PersonRecord{
		EmployeeNo: st.Pinfl,
		Name:       st.FullName(),
		BeginTime:  exam.StartDate.Format("2006-01-02") + "T00:00:00",
		EndTime:    exam.FinishDate.Format("2006-01-02") + "T23:59:59",
	}
	return s.attempt(ctx, backoff, client, func() (*hikvision.Result, error) {
		return client.AddPerson(ctx, record)
	})
}

// pushImage pushes one face image, compressing it under the device limit
// first
func (s *ProvisionService) pushImage(ctx context.Context, client DeviceClient, backoff *hikvision.BackoffPolicy, st *models.Student) bool {
	ps, err := s.Students.GetPsData(st.ID)
	if err != nil || ps == nil || ps.ImageB64 == "" {
		logger.Warning("no face photo for student %s", st.Pinfl)
		return false
	}

	jpeg, err := s.prepareImage(ps.ImageB64)
	if err != nil {
		logger.Warning("face photo for %s unusable: %v", st.Pinfl, err)
		return false
	}

	return s.attempt(ctx, backoff, client, func() (*hikvision.Result, error) {
		return client.UploadFace(ctx, s.Config.DeviceFaceFDID, st.Pinfl, jpeg)
	})
}

// prepareImage decodes a stored base64 photo and compresses it under the
// device size ceiling
func (s *ProvisionService) prepareImage(b64 string) ([]byte, error) {
	raw, err := picture.DecodeBase64Image(b64)
	if err != nil {
		return nil, err
	}
	return picture.CompressToLimit(raw, s.Config.PushImageLimitKB)
}

// attempt runs one device call with the shared retry discipline: transport
// errors and hardware-error bodies back off and retry, a 401 resets the
// session and retries, plain failures retry at the current pacing. Bounded
// by the configured attempt cap.
func (s *ProvisionService) attempt(ctx context.Context, backoff *hikvision.BackoffPolicy, client DeviceClient, call func() (*hikvision.Result, error)) bool {
	maxAttempts := s.Config.DeviceMaxRetries
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return false
		}
		if attempt > 0 {
			s.Sleep(backoff.Delay())
		}

		res, err := call()
		if err != nil {
			if errors.Is(err, hikvision.ErrUnauthorized) {
				// fresh handshake, then retry the same record
				client.Reset()
				continue
			}
			// timeouts and transport errors get the hardware treatment
			backoff.OnHardwareError()
			continue
		}

		if hikvision.Succeeded(res) {
			backoff.OnSuccess()
			return true
		}
		if hikvision.IsHardwareError(res.Body) {
			backoff.OnHardwareError()
			continue
		}
		// well-formed refusal (e.g. conflicting add): retry without escalating
	}
	return false
}

// saveBinding checkpoints the counters and failed lists
func (s *ProvisionService) saveBinding(binding *models.ExamTurnstile, failedPersons, failedImages []string) {
	binding.UnpushedPersonPinfls = joinPinfls(failedPersons)
	binding.UnpushedImagePinfls = joinPinfls(failedImages)
	binding.RecomputeReady()
	if err := s.Bindings.SaveBinding(binding); err != nil {
		logger.Error("binding %d checkpoint failed: %v", binding.ID, err)
	}
}

func splitPinfls(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinPinfls(pinfls []string) string {
	return strings.Join(pinfls, ",")
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
