package trace_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/replsim/trace"
)

var _ = Describe("Trace", func() {
	Describe("Reader", func() {
		It("should skip comments and blank lines", func() {
			input := strings.NewReader(`# pc addr type
0x400 0x1000 R

400 2040 w   # store
0X404 0x1008
`)
			r := trace.NewReader(input)

			rec, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(rec).To(Equal(trace.Record{PC: 0x400, Addr: 0x1000}))

			rec, err = r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(rec).To(Equal(trace.Record{PC: 0x400, Addr: 0x2040, Write: true}))
			Expect(r.Line()).To(Equal(4))

			rec, err = r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Write).To(BeFalse())
			Expect(rec.PC).To(Equal(uint64(0x404)))

			_, err = r.Next()
			Expect(err).To(Equal(io.EOF))
		})

		It("should report the line of a malformed record", func() {
			input := strings.NewReader("0x400 0x1000\n\n0x400 zz\n")
			_, err := trace.Parse(input)
			Expect(err).To(MatchError(ContainSubstring("line 3")))
			Expect(err).To(MatchError(ContainSubstring("invalid address")))
		})

		It("should reject unknown access types and extra fields", func() {
			_, err := trace.Parse(strings.NewReader("1 2 X\n"))
			Expect(err).To(MatchError(ContainSubstring("invalid access type")))

			_, err = trace.Parse(strings.NewReader("1 2 R 4\n"))
			Expect(err).To(MatchError(ContainSubstring("line 1")))

			_, err = trace.Parse(strings.NewReader("1\n"))
			Expect(err).To(HaveOccurred())
		})

		It("should return no records for an empty trace", func() {
			records, err := trace.Parse(strings.NewReader("# nothing\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(BeEmpty())
		})
	})

	Describe("Write and Load", func() {
		It("should read back what it writes", func() {
			records := []trace.Record{
				{PC: 0x4a8, Addr: 0x155 << 10},
				{PC: 0x7f30, Addr: 0xdead_beef, Write: true},
			}

			var buf bytes.Buffer
			Expect(trace.Write(&buf, records)).To(Succeed())
			Expect(buf.String()).To(HavePrefix("0x4a8 0x55400 R\n"))

			path := filepath.Join(GinkgoT().TempDir(), "t.trace")
			Expect(os.WriteFile(path, buf.Bytes(), 0644)).To(Succeed())

			loaded, err := trace.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(records))
		})

		It("should fail on a missing file", func() {
			_, err := trace.Load("/nonexistent/trace")
			Expect(err).To(MatchError(ContainSubstring("failed to open trace")))
		})
	})
})
