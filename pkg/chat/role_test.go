package chat_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quarrelhq/quarrel/pkg/chat"
)

var _ = Describe("NextSpeaker", func() {
	turn := func(role chat.Role) *chat.Turn {
		return &chat.Turn{Role: role, Content: "said something"}
	}

	Context("in AUTO mode", func() {
		It("kicks off with the judge", func() {
			next, await := chat.NextSpeaker(chat.ModeAuto, "", nil)
			Expect(await).To(BeFalse())
			Expect(next).To(Equal(chat.RoleJudge))
		})

		It("strictly alternates the two machine roles", func() {
			next, await := chat.NextSpeaker(chat.ModeAuto, "", turn(chat.RoleJudge))
			Expect(await).To(BeFalse())
			Expect(next).To(Equal(chat.RolePartner))

			next, await = chat.NextSpeaker(chat.ModeAuto, "", turn(chat.RolePartner))
			Expect(await).To(BeFalse())
			Expect(next).To(Equal(chat.RoleJudge))
		})
	})

	Context("in HALF mode with the human playing partner", func() {
		It("kicks off by generating the judge", func() {
			next, await := chat.NextSpeaker(chat.ModeHalf, chat.RolePartner, nil)
			Expect(await).To(BeFalse())
			Expect(next).To(Equal(chat.RoleJudge))
		})

		It("waits for the human after a judge turn", func() {
			_, await := chat.NextSpeaker(chat.ModeHalf, chat.RolePartner, turn(chat.RoleJudge))
			Expect(await).To(BeTrue())
		})

		It("generates the judge after a human turn", func() {
			next, await := chat.NextSpeaker(chat.ModeHalf, chat.RolePartner, turn(chat.RolePartner))
			Expect(await).To(BeFalse())
			Expect(next).To(Equal(chat.RoleJudge))
		})
	})

	Context("in HALF mode with the human playing judge", func() {
		It("waits for the human at kickoff", func() {
			_, await := chat.NextSpeaker(chat.ModeHalf, chat.RoleJudge, nil)
			Expect(await).To(BeTrue())
		})

		It("generates the partner after a human judge turn", func() {
			next, await := chat.NextSpeaker(chat.ModeHalf, chat.RoleJudge, turn(chat.RoleJudge))
			Expect(await).To(BeFalse())
			Expect(next).To(Equal(chat.RolePartner))
		})

		It("waits for the human after a partner turn", func() {
			_, await := chat.NextSpeaker(chat.ModeHalf, chat.RoleJudge, turn(chat.RolePartner))
			Expect(await).To(BeTrue())
		})
	})

	Describe("Opponent", func() {
		It("is its own inverse", func() {
			Expect(chat.RoleJudge.Opponent()).To(Equal(chat.RolePartner))
			Expect(chat.RolePartner.Opponent()).To(Equal(chat.RoleJudge))
		})
	})
})
