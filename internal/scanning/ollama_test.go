package scanning

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/mmynk/tabsplit/internal/models"
)

func testImage(encode func(*bytes.Buffer, image.Image) error) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	Expect(encode(&buf, img)).To(Succeed())
	return buf.Bytes()
}

func pngImage() []byte {
	return testImage(func(b *bytes.Buffer, img image.Image) error { return png.Encode(b, img) })
}

func jpegImage() []byte {
	return testImage(func(b *bytes.Buffer, img image.Image) error { return jpeg.Encode(b, img, nil) })
}

var _ = Describe("Ollama", func() {
	var (
		server  *ghttp.Server
		scanner *Ollama
		ctx     context.Context
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		scanner = NewOllama(server.URL()+"/", "llava:1.6", 0)
		ctx = context.Background()
	})

	AfterEach(func() {
		server.Close()
	})

	reply := func(content string) http.HandlerFunc {
		return ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: content},
			Done:    true,
		})
	}

	Describe("ScanReceipt", func() {
		It("should send the image and parse the reply", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
				ghttp.VerifyContentType("application/json"),
				func(w http.ResponseWriter, r *http.Request) {
					var req ollamaChatRequest
					Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
					Expect(req.Model).To(Equal("llava:1.6"))
					Expect(req.Stream).To(BeFalse())
					Expect(req.Format).To(Equal("json"))
					Expect(req.Messages).To(HaveLen(2))
					Expect(req.Messages[1].Images).To(HaveLen(1))
				},
				reply(`{"items": [{"name": "Pasta", "price": 11}], "tax": 1.1, "total": 12.1, "itemsIncludeTax": false}`),
			))

			receipt, err := scanner.ScanReceipt(ctx, jpegImage(), "image/jpeg")
			Expect(err).NotTo(HaveOccurred())
			Expect(receipt.Items).To(Equal([]models.ReceiptItem{{ID: "item-0", Name: "Pasta", Price: 11}}))
			Expect(receipt.Currency).To(Equal("€"))
			Expect(server.ReceivedRequests()).To(HaveLen(1))
		})

		It("should surface API errors", func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not found"))

			receipt, err := scanner.ScanReceipt(ctx, pngImage(), "image/png")
			Expect(err).To(MatchError(ContainSubstring("status 500")))
			Expect(receipt).To(BeNil())
		})

		It("should fail on a receipt without items", func() {
			server.AppendHandlers(reply(`{"items": [], "total": 0, "itemsIncludeTax": false}`))

			_, err := scanner.ScanReceipt(ctx, pngImage(), "image/png")
			Expect(err).To(MatchError(ErrNoItems))
		})

		It("should not call the model for an unreadable image", func() {
			_, err := scanner.ScanReceipt(ctx, []byte("not an image"), "image/jpeg")
			Expect(err).To(HaveOccurred())
			Expect(server.ReceivedRequests()).To(BeEmpty())
		})
	})

	Describe("InterpretCommand", func() {
		It("should send the snapshot and parse the reply", func() {
			snapshot := models.CommandSnapshot{
				Items:       []models.ReceiptItem{{ID: "item-0", Name: "Pizza", Price: 9}},
				People:      []string{"Alex"},
				Assignments: []models.Assignment{{ItemID: "item-0", People: []string{}}},
			}
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
				func(w http.ResponseWriter, r *http.Request) {
					var req ollamaChatRequest
					Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
					Expect(req.Messages[1].Content).To(ContainSubstring(`"Pizza"`))
					Expect(req.Messages[1].Content).To(ContainSubstring(`"Alex and Sam had the pizza"`))
					Expect(req.Messages[1].Images).To(BeEmpty())
				},
				reply(`{"assignments": [{"itemName": "Pizza", "people": ["Alex", "Sam"], "action": "set"}], "newPeople": ["Sam"], "response": "Done"}`),
			))

			result, err := scanner.InterpretCommand(ctx, "Alex and Sam had the pizza", snapshot)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.NewPeople).To(Equal([]string{"Sam"}))
			Expect(result.Assignments).To(HaveLen(1))
			Expect(result.Assignments[0].Action).To(Equal(models.ActionSet))
		})
	})
})

var _ = Describe("prepareImage", func() {
	It("should pass PNG through", func() {
		data := pngImage()
		out, err := prepareImage(data, "image/png")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(data))
	})

	It("should convert JPEG to PNG", func() {
		out, err := prepareImage(jpegImage(), "IMAGE/JPEG")
		Expect(err).NotTo(HaveOccurred())
		_, format, err := image.DecodeConfig(bytes.NewReader(out))
		Expect(err).NotTo(HaveOccurred())
		Expect(format).To(Equal("png"))
	})

	It("should sniff a missing MIME type", func() {
		out, err := prepareImage(jpegImage(), "")
		Expect(err).NotTo(HaveOccurred())
		_, format, _ := image.DecodeConfig(bytes.NewReader(out))
		Expect(format).To(Equal("png"))
	})

	It("should reject empty input", func() {
		_, err := prepareImage(nil, "image/png")
		Expect(err).To(HaveOccurred())
	})

	It("should recognize HEIC brands", func() {
		header := append([]byte{0, 0, 0, 24}, []byte("ftypheic")...)
		Expect(isHEIC(header, "")).To(BeTrue())
		Expect(isHEIC(pngImage(), "image/png")).To(BeFalse())
		Expect(isHEIC(nil, "image/heif")).To(BeTrue())
	})
})
