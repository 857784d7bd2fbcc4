package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/fleet-hos/internal/domain"
	"github.com/pkordes/fleet-hos/internal/repo"
)

func TestDutyLogRepo_ListIntervals_OrderedAndScoped(t *testing.T) {
	tx := newTestTx(t)
	ctx := context.Background()
	company := insertCompany(t, tx)
	other := insertCompany(t, tx)
	driver := insertDriver(t, tx, company, "Ana", nil, nil, nil)
	stranger := insertDriver(t, tx, other, "Bo", nil, nil, nil)

	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	insertLog(t, tx, company, driver, "driving", day.Add(10*time.Hour), 120)
	insertLog(t, tx, company, driver, "on_duty", day.Add(8*time.Hour), 60)
	insertLog(t, tx, company, driver, "driving", day.AddDate(0, 0, 1).Add(8*time.Hour), 60) // next day
	insertLog(t, tx, other, stranger, "driving", day.Add(8*time.Hour), 60)

	r := repo.NewDutyLogRepo(tx)
	got, err := r.ListIntervals(ctx, company, driver, day, day.AddDate(0, 0, 1))

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.DutyOnDuty, got[0].Status)
	assert.Equal(t, domain.DutyDriving, got[1].Status)
	require.NotNil(t, got[1].DurationMinutes)
	assert.Equal(t, 120, *got[1].DurationMinutes)

	none, err := r.ListIntervals(ctx, other, driver, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, none, "another company must not see the driver's logs")
}

func TestDutyLogRepo_Append_Ongoing(t *testing.T) {
	tx := newTestTx(t)
	ctx := context.Background()
	company := insertCompany(t, tx)
	driver := insertDriver(t, tx, company, "Ana", nil, nil, nil)

	r := repo.NewDutyLogRepo(tx)
	start := time.Date(2025, 6, 2, 6, 0, 0, 0, time.UTC)
	got, err := r.Append(ctx, company, domain.DutyInterval{
		DriverID:  driver,
		Status:    domain.DutyDriving,
		StartTime: start,
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Nil(t, got.EndTime)
	assert.Nil(t, got.DurationMinutes)
	assert.True(t, got.Date.Equal(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)))
}

func TestDutyLogRepo_Append_RejectsInvalidStatus(t *testing.T) {
	tx := newTestTx(t)
	company := insertCompany(t, tx)

	_, err := repo.NewDutyLogRepo(tx).Append(context.Background(), company, domain.DutyInterval{
		DriverID:  uuid.New(),
		Status:    "yard_move",
		StartTime: time.Now(),
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
}
