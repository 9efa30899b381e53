package services

import (
	"reflect"
	"strings"
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"

	"github.com/yusufturaev707/faceid/internal/domain/models"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func TestBindingQueryExcludesInactiveAndFinished(t *testing.T) {
	s := &TurnstileService{DB: dryRunDB(t)}

	var binding models.ExamTurnstile
	stmt := s.bindingQuery(7).Find(&binding).Statement

	sql := stmt.SQL.String()
	if !strings.Contains(sql, "exam_turnstiles.status") {
		t.Errorf("query must filter on the binding status flag, got %q", sql)
	}
	if !strings.Contains(sql, "exams.is_finished") {
		t.Errorf("query must exclude finished exams, got %q", sql)
	}
	if !strings.Contains(sql, "exam_turnstiles.id DESC") {
		t.Errorf("query must prefer the newest binding, got %q", sql)
	}
	want := []interface{}{uint(7), true, false}
	if !reflect.DeepEqual(stmt.Vars, want) {
		t.Errorf("vars = %v, want %v", stmt.Vars, want)
	}
}
