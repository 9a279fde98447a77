package chat_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quarrelhq/quarrel/pkg/chat"
)

var _ = Describe("Ended", func() {
	var log *chat.Log

	BeforeEach(func() {
		log = chat.NewLog()
	})

	It("is false for an empty log", func() {
		Expect(chat.Ended(log, chat.ModeAuto)).To(BeFalse())
	})

	It("is true as soon as the last turn is an error", func() {
		log.Append(chat.Turn{Role: chat.RoleJudge, Content: "hey"})
		Expect(chat.Ended(log, chat.ModeAuto)).To(BeFalse())

		log.Append(chat.Turn{Role: chat.RolePartner, Content: "crash", IsError: true})
		Expect(chat.Ended(log, chat.ModeAuto)).To(BeTrue())
	})

	It("is true at the turn cap in both modes", func() {
		role := chat.RoleJudge
		for i := 0; i < chat.MaxTurns; i++ {
			log.Append(chat.Turn{Role: role, Content: fmt.Sprintf("turn %d", i)})
			role = role.Opponent()
		}

		Expect(log.Len()).To(Equal(chat.MaxTurns))
		Expect(chat.Ended(log, chat.ModeAuto)).To(BeTrue())
		Expect(chat.Ended(log, chat.ModeHalf)).To(BeTrue())
	})

	It("stays false one turn short of the cap", func() {
		for i := 0; i < chat.MaxTurns-1; i++ {
			log.Append(chat.Turn{Role: chat.RoleJudge, Content: "x"})
		}
		Expect(chat.Ended(log, chat.ModeAuto)).To(BeFalse())
	})

	It("is idempotent and side-effect-free", func() {
		log.Append(chat.Turn{Role: chat.RoleJudge, Content: "boom", IsError: true})

		before := log.All()
		Expect(chat.Ended(log, chat.ModeAuto)).To(BeTrue())
		Expect(chat.Ended(log, chat.ModeAuto)).To(BeTrue())
		Expect(log.All()).To(Equal(before))
	})
})
