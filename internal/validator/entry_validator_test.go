package validator

import (
	"strings"
	"testing"

	apperrors "github.com/SAP-F-2025/grading-workflow-service/internal/errors"
	"github.com/SAP-F-2025/grading-workflow-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateField_Marks(t *testing.T) {
	valid := []string{"", "0", "100", "57.5", " 42 "}
	for _, raw := range valid {
		assert.True(t, ValidateField(models.FieldMarks, raw), "expected %q to pass", raw)
	}

	invalid := []string{"101", "-1", "abc", "NaN", "Inf", "100.01",
		"0x1p4", "0x32p0", "1e1", "5E1", "+50", "1_0", "50.", ".5", "٥٠"}
	for _, raw := range invalid {
		assert.False(t, ValidateField(models.FieldMarks, raw), "expected %q to fail", raw)
	}
}

func TestValidateField_Status(t *testing.T) {
	for _, raw := range []string{"PRESENT", "ABSENT", "LATE", "present", "Late"} {
		assert.True(t, ValidateField(models.FieldStatus, raw), "expected %q to pass", raw)
	}
	for _, raw := range []string{"", "EXCUSED", "here"} {
		assert.False(t, ValidateField(models.FieldStatus, raw), "expected %q to fail", raw)
	}
}

func TestValidateField_RemarksAndUnknown(t *testing.T) {
	assert.True(t, ValidateField(models.FieldRemarks, ""))
	assert.True(t, ValidateField(models.FieldRemarks, "good progress"))
	assert.False(t, ValidateField(models.FieldRemarks, strings.Repeat("x", MaxRemarksLength+1)))
	assert.False(t, ValidateField("grade", "A"))
}

func page(ids ...string) []models.RosterEntry {
	entries := make([]models.RosterEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, models.RosterEntry{EntityID: id, DisplayName: "Student " + id})
	}
	return entries
}

func TestPageIsComplete(t *testing.T) {
	entities := page("s1", "s2")
	required := models.WorkflowMarks.RequiredFields()

	t.Run("all entered", func(t *testing.T) {
		values := models.FieldValues{
			"s1": models.Entry{}.With(models.FieldMarks, "80"),
			"s2": models.Entry{}.With(models.FieldMarks, "0"),
		}
		assert.True(t, PageIsComplete(entities, values, required))
	})

	t.Run("absent key", func(t *testing.T) {
		values := models.FieldValues{
			"s1": models.Entry{}.With(models.FieldMarks, "80"),
		}
		assert.False(t, PageIsComplete(entities, values, required))
	})

	t.Run("empty string counts as missing", func(t *testing.T) {
		values := models.FieldValues{
			"s1": models.Entry{}.With(models.FieldMarks, "80"),
			"s2": models.Entry{}.With(models.FieldMarks, ""),
		}
		assert.False(t, PageIsComplete(entities, values, required))
	})

	t.Run("values outside the page are ignored", func(t *testing.T) {
		values := models.FieldValues{
			"s1": models.Entry{}.With(models.FieldMarks, "80"),
			"s2": models.Entry{}.With(models.FieldMarks, "75"),
			"s9": models.Entry{}.With(models.FieldMarks, "500"),
		}
		assert.True(t, PageIsComplete(entities, values, required))
	})

	t.Run("empty page is complete", func(t *testing.T) {
		assert.True(t, PageIsComplete(nil, models.FieldValues{}, required))
	})
}

func TestCheckPage_ReasonCategories(t *testing.T) {
	entities := page("s1", "s2", "s3")
	required := models.WorkflowMarks.RequiredFields()

	values := models.FieldValues{
		"s1": models.Entry{}.With(models.FieldMarks, "80"),
		"s2": models.Entry{}.With(models.FieldMarks, "150"),
	}
	failure := CheckPage(entities, values, required)
	require.NotNil(t, failure)
	assert.Equal(t, "s2", failure.EntityID)
	assert.Equal(t, apperrors.RuleMarksRange, failure.Rule)
	assert.False(t, failure.IsMissing())

	values["s2"] = models.Entry{}.With(models.FieldMarks, "90")
	failure = CheckPage(entities, values, required)
	require.NotNil(t, failure)
	assert.Equal(t, "s3", failure.EntityID)
	assert.True(t, failure.IsMissing())

	values["s3"] = models.Entry{}.With(models.FieldMarks, "50").With(models.FieldRemarks, strings.Repeat("r", 300))
	failure = CheckPage(entities, values, required)
	require.NotNil(t, failure)
	assert.Equal(t, apperrors.RuleRemarksLength, failure.Rule)

	values["s3"] = models.Entry{}.With(models.FieldMarks, "50").With(models.FieldRemarks, "ok")
	assert.Nil(t, CheckPage(entities, values, required))
}

func TestCheckPage_Attendance(t *testing.T) {
	entities := page("s1", "s2")
	required := models.WorkflowAttendance.RequiredFields()

	values := models.FieldValues{
		"s1": models.Entry{}.With(models.FieldStatus, "PRESENT"),
		"s2": models.Entry{}.With(models.FieldStatus, "SICK"),
	}
	failure := CheckPage(entities, values, required)
	require.NotNil(t, failure)
	assert.Equal(t, apperrors.RuleAttendanceStatus, failure.Rule)

	values["s2"] = models.Entry{}.With(models.FieldStatus, "late")
	assert.True(t, PageIsComplete(entities, values, required))
}
