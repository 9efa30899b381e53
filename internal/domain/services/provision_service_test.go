package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/yusufturaev707/faceid/internal/domain/models"
	"github.com/yusufturaev707/faceid/internal/infrastructure/config"
	"github.com/yusufturaev707/faceid/internal/infrastructure/hikvision"
)

// fakeDeviceClient scripts AddPerson/UploadFace outcomes in order
type fakeDeviceClient struct {
	script  []deviceOutcome
	calls   int
	resets  int
	persons []hikvision.PersonRecord
	faces   [][]byte
}

type deviceOutcome struct {
	res *hikvision.Result
	err error
}

var deviceOK = &hikvision.Result{StatusCode: 200, Body: `{"statusCode":1,"statusString":"OK","subStatusCode":"ok"}`}
var deviceHardwareError = &hikvision.Result{StatusCode: 200, Body: `{"statusCode":4,"subStatusCode":"deviceError"}`}
var deviceRefusal = &hikvision.Result{StatusCode: 200, Body: `{"statusCode":6,"subStatusCode":"employeeNoAlreadyExist"}`}

func (f *fakeDeviceClient) next() (*hikvision.Result, error) {
	out := deviceOutcome{res: deviceOK}
	if f.calls < len(f.script) {
		out = f.script[f.calls]
	}
	f.calls++
	return out.res, out.err
}

func (f *fakeDeviceClient) CheckActivated(ctx context.Context) (bool, error) { return true, nil }

func (f *fakeDeviceClient) DeleteAllPersons(ctx context.Context) (bool, error) { return true, nil }

func (f *fakeDeviceClient) AddPerson(ctx context.Context, p hikvision.PersonRecord) (*hikvision.Result, error) {
	f.persons = append(f.persons, p)
	return f.next()
}

func (f *fakeDeviceClient) UploadFace(ctx context.Context, fdid, employeeNo string, jpeg []byte) (*hikvision.Result, error) {
	f.faces = append(f.faces, jpeg)
	return f.next()
}

func (f *fakeDeviceClient) Reset() { f.resets++ }

// fakePsStudents serves stored passport records to the push engine
type fakePsStudents struct {
	fakeStudents
	roster []models.Student
	psData map[uint]*models.StudentPsData
}

func (f *fakePsStudents) ListForZone(examID, zoneID uint) ([]models.Student, error) {
	return f.roster, nil
}

func (f *fakePsStudents) List(examID uint, zoneID uint, query models.PaginationQuery) ([]models.Student, models.PaginationResult, error) {
	return nil, models.PaginationResult{}, nil
}

func (f *fakePsStudents) GetPsData(studentID uint) (*models.StudentPsData, error) {
	ps, ok := f.psData[studentID]
	if !ok {
		return nil, fmt.Errorf("no ps data for %d", studentID)
	}
	return ps, nil
}

// fakeBindingSaver records every checkpoint write
type fakeBindingSaver struct {
	saves []models.ExamTurnstile
}

func (f *fakeBindingSaver) SaveBinding(binding *models.ExamTurnstile) error {
	f.saves = append(f.saves, *binding)
	return nil
}

func (f *fakeBindingSaver) last(t *testing.T) models.ExamTurnstile {
	t.Helper()
	if len(f.saves) == 0 {
		t.Fatal("no checkpoint was written")
	}
	return f.saves[len(f.saves)-1]
}

func testProvisionService(students InterfaceStudentService) (*ProvisionService, *[]time.Duration) {
	var slept []time.Duration
	s := &ProvisionService{
		Config: &config.Config{
			DeviceMaxRetries: 3,
			PushBaseDelay:    10 * time.Millisecond,
			PushMaxDelay:     80 * time.Millisecond,
			PushImageLimitKB: 200,
			DeviceFaceFDID:   "1",
		},
		Students:  students,
		Sleep:     func(d time.Duration) { slept = append(slept, d) },
		busyDoors: make(map[uint]bool),
		runs:      make(map[string]context.CancelFunc),
	}
	return s, &slept
}

func TestAttemptRetriesHardwareErrorWithBackoff(t *testing.T) {
	s, slept := testProvisionService(nil)
	client := &fakeDeviceClient{script: []deviceOutcome{
		{res: deviceHardwareError},
		{res: deviceHardwareError},
		{res: deviceOK},
	}}
	backoff := hikvision.NewBackoffPolicy(s.Config.PushBaseDelay, s.Config.PushMaxDelay)

	ok := s.attempt(context.Background(), backoff, client, func() (*hikvision.Result, error) {
		return client.AddPerson(context.Background(), hikvision.PersonRecord{})
	})
	if !ok {
		t.Fatal("third attempt succeeds, attempt must report true")
	}
	if client.calls != 3 {
		t.Errorf("calls = %d, want 3", client.calls)
	}
	// Two retries sleep the escalated delays: 20ms after the first error,
	// 40ms after the second
	want := []time.Duration{20 * time.Millisecond, 40 * time.Millisecond}
	if !reflect.DeepEqual(*slept, want) {
		t.Errorf("slept = %v, want %v", *slept, want)
	}
}

func TestAttemptGivesUpAfterMaxRetries(t *testing.T) {
	s, _ := testProvisionService(nil)
	client := &fakeDeviceClient{script: []deviceOutcome{
		{res: deviceHardwareError},
		{res: deviceHardwareError},
		{res: deviceHardwareError},
		{res: deviceOK},
	}}
	backoff := hikvision.NewBackoffPolicy(s.Config.PushBaseDelay, s.Config.PushMaxDelay)

	ok := s.attempt(context.Background(), backoff, client, func() (*hikvision.Result, error) {
		return client.AddPerson(context.Background(), hikvision.PersonRecord{})
	})
	if ok {
		t.Fatal("attempt must give up after the configured cap")
	}
	if client.calls != 3 {
		t.Errorf("calls = %d, want the cap of 3", client.calls)
	}
}

func TestAttemptResetsSessionOnUnauthorized(t *testing.T) {
	s, _ := testProvisionService(nil)
	client := &fakeDeviceClient{script: []deviceOutcome{
		{err: hikvision.ErrUnauthorized},
		{res: deviceOK},
	}}
	backoff := hikvision.NewBackoffPolicy(s.Config.PushBaseDelay, s.Config.PushMaxDelay)

	ok := s.attempt(context.Background(), backoff, client, func() (*hikvision.Result, error) {
		return client.AddPerson(context.Background(), hikvision.PersonRecord{})
	})
	if !ok {
		t.Fatal("retry after session reset must succeed")
	}
	if client.resets != 1 {
		t.Errorf("resets = %d, want 1", client.resets)
	}
	// 401 is an auth problem, not device load: the pacing must not escalate
	if backoff.Delay() != s.Config.PushBaseDelay {
		t.Errorf("delay = %v, must stay at base", backoff.Delay())
	}
}

func TestAttemptPlainRefusalDoesNotEscalate(t *testing.T) {
	s, _ := testProvisionService(nil)
	client := &fakeDeviceClient{script: []deviceOutcome{
		{res: deviceRefusal},
		{res: deviceRefusal},
		{res: deviceRefusal},
	}}
	backoff := hikvision.NewBackoffPolicy(s.Config.PushBaseDelay, s.Config.PushMaxDelay)

	ok := s.attempt(context.Background(), backoff, client, func() (*hikvision.Result, error) {
		return client.AddPerson(context.Background(), hikvision.PersonRecord{})
	})
	if ok {
		t.Fatal("persistent refusal must fail")
	}
	if backoff.Delay() != s.Config.PushBaseDelay {
		t.Errorf("delay = %v, refusals must not escalate the backoff", backoff.Delay())
	}
}

func TestPushPersonFormatsExamValidity(t *testing.T) {
	s, _ := testProvisionService(nil)
	client := &fakeDeviceClient{}
	backoff := hikvision.NewBackoffPolicy(s.Config.PushBaseDelay, s.Config.PushMaxDelay)

	exam := &models.Exam{
		StartDate:  time.Date(2026, 5, 20, 0, 0, 0, 0, time.Local),
		FinishDate: time.Date(2026, 5, 22, 0, 0, 0, 0, time.Local),
	}
	st := &models.Student{Pinfl: "12345678901234", LastName: "Aliyev", FirstName: "Vali"}

	if !s.pushPerson(context.Background(), client, backoff, exam, st) {
		t.Fatal("push must succeed")
	}
	if len(client.persons) != 1 {
		t.Fatalf("persons = %d, want 1", len(client.persons))
	}
	rec := client.persons[0]
	if rec.EmployeeNo != "12345678901234" {
		t.Errorf("employeeNo = %q", rec.EmployeeNo)
	}
	if rec.BeginTime != "2026-05-20T00:00:00" || rec.EndTime != "2026-05-22T23:59:59" {
		t.Errorf("validity = %s..%s, want whole exam days", rec.BeginTime, rec.EndTime)
	}
}

func TestPushImageUsesStoredPhoto(t *testing.T) {
	photo := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	students := &fakePsStudents{
		psData: map[uint]*models.StudentPsData{
			11: {ImageB64: base64.StdEncoding.EncodeToString(photo)},
		},
	}
	s, _ := testProvisionService(students)
	client := &fakeDeviceClient{}
	backoff := hikvision.NewBackoffPolicy(s.Config.PushBaseDelay, s.Config.PushMaxDelay)

	st := &models.Student{Pinfl: "12345678901234"}
	st.ID = 11

	if !s.pushImage(context.Background(), client, backoff, st) {
		t.Fatal("image push must succeed")
	}
	if len(client.faces) != 1 || !reflect.DeepEqual(client.faces[0], photo) {
		t.Errorf("device must receive the stored photo bytes")
	}
}

func TestPushImageFailsWithoutPhoto(t *testing.T) {
	students := &fakePsStudents{psData: map[uint]*models.StudentPsData{}}
	s, _ := testProvisionService(students)
	client := &fakeDeviceClient{}
	backoff := hikvision.NewBackoffPolicy(s.Config.PushBaseDelay, s.Config.PushMaxDelay)

	st := &models.Student{Pinfl: "12345678901234"}
	st.ID = 11

	if s.pushImage(context.Background(), client, backoff, st) {
		t.Fatal("missing photo must fail without calling the device")
	}
	if len(client.faces) != 0 {
		t.Errorf("device must not be called")
	}
}

func TestRetryDoorShrinksFailedListOnSuccess(t *testing.T) {
	a, b, c := "10000000000001", "10000000000002", "10000000000003"
	photo := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}

	stA := &models.Student{Pinfl: a}
	stA.ID = 1
	stB := &models.Student{Pinfl: b}
	stB.ID = 2
	stC := &models.Student{Pinfl: c}
	stC.ID = 3

	students := &fakePsStudents{
		fakeStudents: fakeStudents{inExam: map[string]*models.Student{a: stA, b: stB, c: stC}},
		psData: map[uint]*models.StudentPsData{
			2: {ImageB64: base64.StdEncoding.EncodeToString(photo)},
		},
	}
	s, _ := testProvisionService(students)
	saver := &fakeBindingSaver{}
	s.Bindings = saver
	client := &fakeDeviceClient{script: []deviceOutcome{
		{res: deviceRefusal}, {res: deviceRefusal}, {res: deviceRefusal}, // first person, all attempts
		{res: deviceOK}, {res: deviceOK}, // second person, then their image
		{res: deviceRefusal}, {res: deviceRefusal}, {res: deviceRefusal}, // third person
	}}
	s.Sessions = func(t *models.Turnstile) DeviceClient { return client }

	exam := &models.Exam{
		StartDate:  time.Date(2026, 5, 20, 0, 0, 0, 0, time.Local),
		FinishDate: time.Date(2026, 5, 22, 0, 0, 0, 0, time.Local),
	}
	binding := models.ExamTurnstile{
		TurnstileID:          7,
		ExpectedCount:        10,
		PushedPersonCount:    7,
		PushedImageCount:     7,
		ErrPersonCount:       3,
		UnpushedPersonPinfls: joinPinfls([]string{a, b, c}),
		Turnstile:            &models.Turnstile{ZoneID: 1, Name: "T-7", IPAddress: "10.0.0.7"},
	}

	s.retryDoor(context.Background(), exam, binding)

	got := saver.last(t)
	if got.UnpushedPersonPinfls != a+","+c {
		t.Errorf("failed list = %q, want %q", got.UnpushedPersonPinfls, a+","+c)
	}
	if got.PushedPersonCount != 8 {
		t.Errorf("pushed persons = %d, want 8", got.PushedPersonCount)
	}
	if got.ErrPersonCount != 2 {
		t.Errorf("err persons = %d, want 2", got.ErrPersonCount)
	}
	if got.PushedImageCount != 8 {
		t.Errorf("pushed images = %d, want 8", got.PushedImageCount)
	}
	if got.UnpushedImagePinfls != "" {
		t.Errorf("image failed list = %q, want empty", got.UnpushedImagePinfls)
	}
}

func TestPushDoorCancelDefersRemainderToRetry(t *testing.T) {
	photo := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	roster := make([]models.Student, 5)
	psData := make(map[uint]*models.StudentPsData)
	for i := range roster {
		roster[i].ID = uint(i + 1)
		roster[i].Pinfl = fmt.Sprintf("2000000000000%d", i+1)
		psData[roster[i].ID] = &models.StudentPsData{ImageB64: base64.StdEncoding.EncodeToString(photo)}
	}
	students := &fakePsStudents{roster: roster, psData: psData}
	s, _ := testProvisionService(students)
	saver := &fakeBindingSaver{}
	s.Bindings = saver
	client := &fakeDeviceClient{}
	s.Sessions = func(t *models.Turnstile) DeviceClient { return client }

	// cancel during the third record's pacing sleep
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sleeps := 0
	s.Sleep = func(time.Duration) {
		sleeps++
		if sleeps == 3 {
			cancel()
		}
	}

	exam := &models.Exam{
		StartDate:  time.Date(2026, 5, 20, 0, 0, 0, 0, time.Local),
		FinishDate: time.Date(2026, 5, 22, 0, 0, 0, 0, time.Local),
	}
	binding := models.ExamTurnstile{
		TurnstileID: 7,
		Turnstile:   &models.Turnstile{ZoneID: 1, Name: "T-7", IPAddress: "10.0.0.7"},
	}

	s.pushDoor(ctx, exam, binding, false)

	got := saver.last(t)
	if got.PushedPersonCount != 2 || got.PushedImageCount != 2 {
		t.Errorf("pushed = %d/%d, want 2/2", got.PushedPersonCount, got.PushedImageCount)
	}
	// the record in flight plus the unattempted remainder must all land in the
	// failed list, so a retry run can finish the roster
	want := joinPinfls([]string{roster[2].Pinfl, roster[3].Pinfl, roster[4].Pinfl})
	if got.UnpushedPersonPinfls != want {
		t.Errorf("failed list = %q, want %q", got.UnpushedPersonPinfls, want)
	}
	if got.ErrPersonCount != 3 {
		t.Errorf("err persons = %d, want 3", got.ErrPersonCount)
	}
	if got.ExpectedCount != 5 || got.Ready {
		t.Errorf("expected = %d ready = %v, counters must stay honest after cancel", got.ExpectedCount, got.Ready)
	}
}

func TestSplitAndJoinPinfls(t *testing.T) {
	if got := splitPinfls(""); got != nil {
		t.Errorf("empty string splits to nil, got %v", got)
	}
	got := splitPinfls("a, b,,c")
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("split = %v", got)
	}
	if joined := joinPinfls([]string{"a", "c"}); joined != "a,c" {
		t.Errorf("join = %q", joined)
	}
}

func TestAppendUnique(t *testing.T) {
	list := []string{"a", "b"}
	list = appendUnique(list, "b")
	list = appendUnique(list, "c")
	if !reflect.DeepEqual(list, []string{"a", "b", "c"}) {
		t.Errorf("list = %v", list)
	}
}
