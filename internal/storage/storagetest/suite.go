// Package storagetest holds the behaviour every AccountStore backend must share.
package storagetest

import (
	"context"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/openworld/internal/model"
	"github.com/mcoot/openworld/internal/storage"
)

// AccountStoreSuite runs the common account store tests.
// Backends embed it and set Store in their SetupTest.
type AccountStoreSuite struct {
	suite.Suite
	Store storage.AccountStore
	Ctx   context.Context
}

func (s *AccountStoreSuite) seedFamily(id, parent string, status model.AccountStatus) *model.Family {
	family := &model.Family{ID: id, ParentUserID: parent, ParentCode: "code-" + id, Status: status}
	s.Require().NoError(s.Store.SaveFamily(s.Ctx, family))
	return family
}

func (s *AccountStoreSuite) seedChild(id, familyID string, timeLeft int) *model.Child {
	child := &model.Child{
		ID:            id,
		FamilyID:      familyID,
		DisplayName:   "Kid " + id,
		Status:        model.StatusApproved,
		TimeBudgetDay: 3600,
		TimeLeftDay:   timeLeft,
	}
	s.Require().NoError(s.Store.SaveChild(s.Ctx, child))
	return child
}

// Family tests

func (s *AccountStoreSuite) TestSaveAndGetFamily() {
	family := s.seedFamily("fam-1", "user_parent", model.StatusApproved)

	retrieved, err := s.Store.GetFamily(s.Ctx, "fam-1")
	s.Require().NoError(err)
	s.Equal(family.ParentUserID, retrieved.ParentUserID)
	s.Equal(model.StatusApproved, retrieved.Status)
}

func (s *AccountStoreSuite) TestGetFamilyNotFound() {
	_, err := s.Store.GetFamily(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrFamilyNotFound)
}

func (s *AccountStoreSuite) TestGetFamilyByParent() {
	s.seedFamily("fam-1", "user_parent", model.StatusBlocked)

	retrieved, err := s.Store.GetFamilyByParent(s.Ctx, "user_parent")
	s.Require().NoError(err)
	s.Equal("fam-1", retrieved.ID)
	s.True(retrieved.IsBlocked())
}

func (s *AccountStoreSuite) TestGetFamilyByParentNotFound() {
	_, err := s.Store.GetFamilyByParent(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrFamilyNotFound)
}

func (s *AccountStoreSuite) TestSaveFamilyUpdatesStatus() {
	family := s.seedFamily("fam-1", "user_parent", model.StatusPending)
	family.Status = model.StatusApproved
	s.Require().NoError(s.Store.SaveFamily(s.Ctx, family))

	retrieved, err := s.Store.GetFamilyByParent(s.Ctx, "user_parent")
	s.Require().NoError(err)
	s.Equal(model.StatusApproved, retrieved.Status)
}

// Child tests

func (s *AccountStoreSuite) TestSaveAndGetChild() {
	s.seedFamily("fam-1", "user_parent", model.StatusApproved)
	s.seedChild("kid-1", "fam-1", 600)

	retrieved, err := s.Store.GetChild(s.Ctx, "kid-1")
	s.Require().NoError(err)
	s.Equal("fam-1", retrieved.FamilyID)
	s.Equal(600, retrieved.TimeLeftDay)
	s.True(retrieved.IsApproved())
}

func (s *AccountStoreSuite) TestGetChildNotFound() {
	_, err := s.Store.GetChild(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrChildNotFound)
}

func (s *AccountStoreSuite) TestUpdateChildTimeLeft() {
	s.seedFamily("fam-1", "user_parent", model.StatusApproved)
	s.seedChild("kid-1", "fam-1", 600)

	s.Require().NoError(s.Store.UpdateChildTimeLeft(s.Ctx, "kid-1", 42))

	retrieved, err := s.Store.GetChild(s.Ctx, "kid-1")
	s.Require().NoError(err)
	s.Equal(42, retrieved.TimeLeftDay)
	s.Equal(3600, retrieved.TimeBudgetDay)
}

func (s *AccountStoreSuite) TestUpdateChildTimeLeftNotFound() {
	err := s.Store.UpdateChildTimeLeft(s.Ctx, "missing", 10)
	s.ErrorIs(err, model.ErrChildNotFound)
}
