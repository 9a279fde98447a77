package chat_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quarrelhq/quarrel/pkg/chat"
)

var _ = Describe("Log", func() {
	var log *chat.Log

	BeforeEach(func() {
		log = chat.NewLog()
	})

	Describe("Append", func() {
		It("adds turns in order", func() {
			log.Append(chat.Turn{Role: chat.RoleJudge, Content: "what did you do"})
			log.Append(chat.Turn{Role: chat.RolePartner, Content: "nothing happened"})

			all := log.All()
			Expect(all).To(HaveLen(2))
			Expect(all[0].Role).To(Equal(chat.RoleJudge))
			Expect(all[1].Role).To(Equal(chat.RolePartner))
		})
	})

	Describe("UpdateLast", func() {
		Context("when the log is empty", func() {
			It("returns ErrEmptyLog", func() {
				err := log.UpdateLast(func(t *chat.Turn) { t.Content = "x" })
				Expect(err).To(MatchError(chat.ErrEmptyLog))
			})
		})

		Context("when turns exist", func() {
			BeforeEach(func() {
				log.Append(chat.Turn{Role: chat.RoleJudge})
			})

			It("mutates only the last turn", func() {
				log.Append(chat.Turn{Role: chat.RolePartner})

				err := log.UpdateLast(func(t *chat.Turn) { t.Content += "excuse" })
				Expect(err).NotTo(HaveOccurred())

				all := log.All()
				Expect(all[0].Content).To(BeEmpty())
				Expect(all[1].Content).To(Equal("excuse"))
			})

			It("appends increments in order", func() {
				for _, chunk := range []string{"I ", "regret ", "nothing"} {
					c := chunk
					Expect(log.UpdateLast(func(t *chat.Turn) { t.Content += c })).To(Succeed())
				}
				Expect(log.Last().Content).To(Equal("I regret nothing"))
			})

			It("stamps error state", func() {
				Expect(log.UpdateLast(func(t *chat.Turn) { t.IsError = true })).To(Succeed())
				Expect(log.Last().IsError).To(BeTrue())
			})
		})
	})

	Describe("Last", func() {
		It("returns nil for an empty log", func() {
			Expect(log.Last()).To(BeNil())
		})

		It("returns a copy, not a reference", func() {
			log.Append(chat.Turn{Role: chat.RoleJudge, Content: "original"})

			last := log.Last()
			last.Content = "mutated"

			Expect(log.Last().Content).To(Equal("original"))
		})
	})

	Describe("All", func() {
		It("returns a snapshot unaffected by later appends", func() {
			log.Append(chat.Turn{Role: chat.RoleJudge, Content: "one"})
			snapshot := log.All()
			log.Append(chat.Turn{Role: chat.RolePartner, Content: "two"})

			Expect(snapshot).To(HaveLen(1))
			Expect(log.Len()).To(Equal(2))
		})
	})

	Describe("Messages", func() {
		It("strips error state from the wire form", func() {
			log.Append(chat.Turn{Role: chat.RoleJudge, Content: "boom", IsError: true})

			msgs := log.Messages()
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0]).To(Equal(chat.Message{Role: chat.RoleJudge, Content: "boom"}))
		})
	})
})
