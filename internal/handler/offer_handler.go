package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/grenier-labs/marketplace/internal/listing/usecase"
	"github.com/grenier-labs/marketplace/internal/middleware"
)

// maxMultipartMemory bounds the in-memory part of multipart parsing (32 MB,
// larger files spill to disk).
const maxMultipartMemory = 32 << 20

// OfferHandler decodes the offer routes' multipart/query wire format and
// delegates to the listing coordinators.
type OfferHandler struct {
	publish *usecase.PublishUsecase
	modify  *usecase.ModifyUsecase
	delete  *usecase.DeleteUsecase
	search  *usecase.SearchUsecase
	logger  *zap.Logger
}

func NewOfferHandler(publish *usecase.PublishUsecase, modify *usecase.ModifyUsecase, delete *usecase.DeleteUsecase, search *usecase.SearchUsecase, logger *zap.Logger) *OfferHandler {
	return &OfferHandler{
		publish: publish,
		modify:  modify,
		delete:  delete,
		search:  search,
		logger:  logger,
	}
}

// HandlePublish serves POST /offer/publish. A client sending one picture or
// many uses the same field name; the form decoder always yields a slice, so
// the single-image case needs no special coercion here.
func (h *OfferHandler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	// An unparsable price is left at zero and caught by the required-field
	// validation.
	price, _ := strconv.ParseFloat(r.FormValue("price"), 64)
	in := usecase.PublishInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Price:       price,
		Condition:   r.FormValue("condition"),
		City:        r.FormValue("city"),
		Brand:       r.FormValue("brand"),
		Color:       r.FormValue("color"),
		Size:        r.FormValue("size"),
	}

	for _, fh := range r.MultipartForm.File["pictures"] {
		data, err := readUpload(fh)
		if err != nil {
			RespondError(w, http.StatusBadRequest, "failed to read uploaded file: "+err.Error())
			return
		}
		in.Pictures = append(in.Pictures, data)
	}

	user := middleware.UserFromContext(r.Context())
	offer, err := h.publish.Publish(r.Context(), in, user.Account())
	if err != nil {
		respondUsecaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, offer)
}

// HandleModify serves PUT /offer/modify. Form keys that are absent leave
// the stored value untouched; present keys overwrite it, so the wire format
// can distinguish "not supplied" from "set to empty".
func (h *OfferHandler) HandleModify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	in := usecase.ModifyInput{Details: map[string]string{}}
	if v, ok := formField(r, "title"); ok {
		in.Name = &v
	}
	if v, ok := formField(r, "description"); ok {
		in.Description = &v
	}
	if v, ok := formField(r, "price"); ok {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			RespondError(w, http.StatusBadRequest, "price, title or description is invalid")
			return
		}
		in.Price = &price
	}
	for field, label := range map[string]string{
		"condition": usecase.LabelCondition,
		"city":      usecase.LabelLocation,
		"brand":     usecase.LabelBrand,
		"color":     usecase.LabelColor,
		"size":      usecase.LabelSize,
	} {
		if v, ok := formField(r, field); ok {
			in.Details[label] = v
		}
	}

	if fhs := r.MultipartForm.File["picture"]; len(fhs) > 0 {
		data, err := readUpload(fhs[0])
		if err != nil {
			RespondError(w, http.StatusBadRequest, "failed to read uploaded file: "+err.Error())
			return
		}
		in.NewImage = data
	}

	if err := h.modify.Modify(r.Context(), r.FormValue("id"), in); err != nil {
		respondUsecaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "offer modified"})
}

// HandleDelete serves DELETE /offer/delete.
func (h *OfferHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid form: "+err.Error())
		return
	}
	if err := h.delete.Delete(r.Context(), r.FormValue("id")); err != nil {
		respondUsecaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "offer removed"})
}

// HandleSearch serves GET /offers.
func (h *OfferHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.search.Search(r.Context(), usecase.SearchQuery{
		Title:    q.Get("title"),
		PriceMin: q.Get("priceMin"),
		PriceMax: q.Get("priceMax"),
		Sort:     q.Get("sort"),
		Page:     q.Get("page"),
	})
	if err != nil {
		respondUsecaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// HandleGet serves GET /offer/{id}.
func (h *OfferHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	offer, err := h.search.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondUsecaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, offer)
}

// formField reports a form value together with whether the key was present
// at all, which plain FormValue cannot distinguish.
func formField(r *http.Request, key string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
