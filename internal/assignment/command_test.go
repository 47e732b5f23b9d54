package assignment

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mmynk/tabsplit/internal/models"
)

var _ = Describe("Apply", func() {
	var (
		store   *Store
		result  models.CommandResult
		matcher ItemMatcher
		updated int
	)

	peopleOn := func(itemID string) []string {
		a, _ := store.Assignment(itemID)
		return a.People
	}

	BeforeEach(func() {
		store = NewStore(testItems)
		store.AddPerson("Alex")
		store.AddPerson("Sam")
		store.ToggleAssignment("item-0", "Alex")
		matcher = nil
	})

	JustBeforeEach(func() {
		updated = store.Apply(testItems, result, matcher)
	})

	When("setting people on an item", func() {
		BeforeEach(func() {
			result = models.CommandResult{Assignments: []models.AssignmentUpdate{
				{ItemName: "pizza", People: []string{"Sam"}, Action: models.ActionSet},
			}}
		})

		It("should replace the people", func() {
			Expect(updated).To(Equal(1))
			Expect(peopleOn("item-0")).To(Equal([]string{"Sam"}))
		})
	})

	When("adding people to an item", func() {
		BeforeEach(func() {
			result = models.CommandResult{Assignments: []models.AssignmentUpdate{
				{ItemName: "Pizza", People: []string{"Sam", "Alex"}, Action: models.ActionAdd},
			}}
		})

		It("should take the union", func() {
			Expect(peopleOn("item-0")).To(Equal([]string{"Alex", "Sam"}))
		})
	})

	When("removing people from an item", func() {
		BeforeEach(func() {
			result = models.CommandResult{Assignments: []models.AssignmentUpdate{
				{ItemName: " Pizza ", People: []string{"Alex"}, Action: models.ActionRemove},
			}}
		})

		It("should take the difference", func() {
			Expect(peopleOn("item-0")).To(BeEmpty())
		})
	})

	When("the command mentions new people", func() {
		BeforeEach(func() {
			result = models.CommandResult{
				NewPeople: []string{"Jo"},
				Assignments: []models.AssignmentUpdate{
					{ItemName: "Beer", People: []string{"Jo", "Kim"}, Action: models.ActionSet},
				},
			}
		})

		It("should register them before assigning", func() {
			Expect(store.People()).To(Equal([]string{"Alex", "Sam", "Jo", "Kim"}))
			Expect(peopleOn("item-2")).To(Equal([]string{"Jo", "Kim"}))
		})
	})

	When("the item name does not match", func() {
		BeforeEach(func() {
			result = models.CommandResult{Assignments: []models.AssignmentUpdate{
				{ItemName: "Tiramisu", People: []string{"Sam"}, Action: models.ActionSet},
			}}
		})

		It("should change nothing", func() {
			Expect(updated).To(BeZero())
			Expect(peopleOn("item-0")).To(Equal([]string{"Alex"}))
		})
	})

	When("the action is unknown", func() {
		BeforeEach(func() {
			result = models.CommandResult{Assignments: []models.AssignmentUpdate{
				{ItemName: "Pizza", People: []string{"Sam"}, Action: "swap"},
			}}
		})

		It("should skip the update", func() {
			Expect(updated).To(BeZero())
		})
	})

	When("a custom matcher is supplied", func() {
		BeforeEach(func() {
			matcher = ItemMatcherFunc(func(name string, item models.ReceiptItem) bool {
				return strings.HasPrefix(strings.ToLower(item.Name), strings.ToLower(name))
			})
			result = models.CommandResult{Assignments: []models.AssignmentUpdate{
				{ItemName: "sal", People: []string{"Sam"}, Action: models.ActionAdd},
			}}
		})

		It("should use it", func() {
			Expect(peopleOn("item-1")).To(Equal([]string{"Sam"}))
		})
	})
})
