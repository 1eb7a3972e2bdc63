package sim

import (
	"log/slog"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LogObserver", func() {
	It("logs every n frames and the last frame", func() {
		var buf strings.Builder
		o := LogObserver(slog.New(slog.NewTextHandler(&buf, nil)), 3)

		for i := 0; i < 7; i++ {
			Expect(o.OnFrame(FrameEvent{Frame: i, Frames: 7})).To(Succeed())
		}

		out := buf.String()
		Expect(strings.Count(out, "frame rendered")).To(Equal(3))
		Expect(out).To(ContainSubstring("frame=3 "))
		Expect(out).To(ContainSubstring("frame=6 "))
		Expect(out).To(ContainSubstring("frame=7 "))
	})

	It("treats a non-positive interval as every frame", func() {
		var buf strings.Builder
		o := LogObserver(slog.New(slog.NewTextHandler(&buf, nil)), 0)

		for i := 0; i < 4; i++ {
			Expect(o.OnFrame(FrameEvent{Frame: i, Frames: 4})).To(Succeed())
		}
		Expect(strings.Count(buf.String(), "frame rendered")).To(Equal(4))
	})
})
