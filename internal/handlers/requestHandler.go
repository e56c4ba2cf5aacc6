package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/medref/ExtractionAPI/internal/adapter"
	"github.com/medref/ExtractionAPI/internal/adapter/utils"
	"github.com/medref/ExtractionAPI/internal/api"
	"github.com/medref/ExtractionAPI/internal/config"
	"github.com/medref/ExtractionAPI/pkg/logger_i"
)

var logRH *logger_i.Logger

type newJobData struct {
	id           string
	traceId      string
	documentName string
	documentPath string
}

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	return
}

// PostDocumentHandler handles the uploading of referral documents for extraction.
// @Summary      Upload a document for extraction
// @Description  Receives a file via multipart/form-data, saves it to a temporary directory, and queues an extraction job. The returned job id doubles as the document id.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        document_name  formData  string  false  "Display name, defaults to the uploaded filename"
// @Param        document       formData  file    true   "The PDF, DOCX, TXT or RTF file to upload"
// @Success      202  {object}  api.InitJobResponse "Accepted"
// @Failure      400  {object}  api.JobResponse "Bad Request - Missing file, unsupported type or file too large"
// @Failure      500  {object}  api.JobResponse "Internal Server Error - Storage or Write Error"
// @Router       /documents [post]
func PostDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {

		targetDir, errString := getTargetDirectory()
		if errString != "" {
			logRH.Error("Couldn't get target directory :", "err", errString)
			WriteErrorResponse(w, http.StatusInternalServerError, "", errString)
			return
		}

		const maxUploadSize = 32 << 20 //32mb
		err := r.ParseMultipartForm(maxUploadSize)
		if err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
			return
		}

		fileReader, fileMetadata, err := r.FormFile("document")
		if err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "", "Could not retrieve file")
			return
		}
		defer fileReader.Close()

		docName := r.FormValue("document_name")
		if docName == "" {
			docName = fileMetadata.Filename
		}
		if !supportedExtension(docName) {
			WriteErrorResponse(w, http.StatusBadRequest, docName, "Unsupported document type")
			return
		}

		filename := fmt.Sprintf("%d-%s", time.Now().UnixNano(), fileMetadata.Filename)
		tempFilePath := filepath.Join(targetDir, filename)
		destinationFileWriter, err := os.Create(tempFilePath)
		if err != nil {
			WriteErrorResponse(w, http.StatusInternalServerError, docName, "Storage error")
			return
		}
		defer destinationFileWriter.Close()

		if _, err := io.Copy(destinationFileWriter, fileReader); err != nil {
			WriteErrorResponse(w, http.StatusInternalServerError, docName, "Write error")
			return
		}

		newJob := newJobData{
			id:           utils.GetNewUUID(),
			traceId:      r.Context().Value(config.TRACE_ID_KEY).(string),
			documentName: docName,
			documentPath: tempFilePath,
		}
		CreateNewJob(newJob)
		writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
		return
	}
	logRH.Warn("Invalid Context by request ", r.RemoteAddr)
}

// GetStatusHandler godoc
// @Summary      Get extraction job status
// @Description  Retrieves the current status of an extraction job plus its latest progress event.
// @Tags         Job Status
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse   "Successful retrieval of job status"
// @Failure      404  {object}  api.JobResponse   "Job not found (returns Error object within JobResponse)"
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		idString := utils.GetChiURLParam(r, "id")
		traceId := r.Context().Value(config.TRACE_ID_KEY).(string)
		result, isFound := validateId(idString, traceId)

		logRH.Debug("Get Status Request:", "URL path", r.URL.Path)
		if !isFound {
			WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
			return
		}

		progress := GetLatestProgress(idString, traceId)
		writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result, progress))
	}
}

// GetResultHandler godoc
// @Summary      Fetch an extraction result
// @Description  Returns the full extraction result for a completed document, including text, sections and reference points.
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  commonModels.ExtractionResult
// @Failure      404  {object}  api.JobResponse "No result for this document"
// @Router       /documents/{id}/result [get]
func GetResultHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		idString := utils.GetChiURLParam(r, "id")
		result, found := GetResult(r, idString)
		if !found {
			WriteErrorResponse(w, http.StatusNotFound, idString, "Result not found")
			return
		}
		writeJsonResponse(w, http.StatusOK, result)
	}
}

// PostReferencesHandler godoc
// @Summary      Find source references for a field value
// @Description  Maps an extracted field value back to the sections of the stored document text it came from.
// @Tags         Fields
// @Accept       json
// @Produce      json
// @Param        id       path  string                 true  "Document ID"
// @Param        request  body  api.ReferencesRequest  true  "Field value to locate"
// @Success      200  {object}  commonModels.FieldReference
// @Failure      400  {object}  api.JobResponse "Missing field value"
// @Failure      404  {object}  api.JobResponse "No result for this document"
// @Router       /documents/{id}/references [post]
func PostReferencesHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		idString := utils.GetChiURLParam(r, "id")

		var requestData api.ReferencesRequest
		defer func(Body io.ReadCloser) {
			if err := Body.Close(); err != nil {
				logRH.Error("Couldn't close the references request reader :", err)
			}
		}(r.Body)
		if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil || requestData.FieldValue == "" {
			logRH.Warn("Bad References Request: ", "error:", err)
			WriteErrorResponse(w, http.StatusBadRequest, idString, "field_value is required")
			return
		}

		ref, err := FindFieldReferences(r, idString, requestData)
		if err != nil {
			WriteErrorResponse(w, http.StatusNotFound, idString, err.Error())
			return
		}
		writeJsonResponse(w, http.StatusOK, ref)
	}
}

// GetFieldsHandler godoc
// @Summary      Extract intake fields
// @Description  Runs the field extraction model over the stored document text. Output is cached on the result, repeat calls are cheap.
// @Tags         Fields
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  api.FieldsResponse
// @Failure      404  {object}  api.JobResponse "No result for this document"
// @Failure      502  {object}  api.JobResponse "Field extraction backend failed"
// @Router       /documents/{id}/fields [get]
func GetFieldsHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		idString := utils.GetChiURLParam(r, "id")

		extracted, err := ExtractDocumentFields(r, idString)
		if err != nil {
			code := http.StatusBadGateway
			if strings.Contains(err.Error(), "no extraction result") {
				code = http.StatusNotFound
			}
			WriteErrorResponse(w, code, idString, err.Error())
			return
		}
		writeJsonResponse(w, http.StatusOK, api.FieldsResponse{DocumentId: idString, Fields: extracted})
	}
}

// DeleteDocumentHandler godoc
// @Summary      Delete a document
// @Description  Deletes the stored extraction result, job record and section index entries for a document.
// @Tags         Documents
// @Produce      json
// @Param        id   path  string  true  "Document ID"
// @Success      204  "No Content"
// @Failure      404  {object}  api.JobResponse "Unknown document"
// @Router       /documents/{id} [delete]
func DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		idString := utils.GetChiURLParam(r, "id")
		if !DeleteDocument(r, idString) {
			WriteErrorResponse(w, http.StatusNotFound, idString, "Document not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func supportedExtension(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".docx", ".txt", ".rtf":
		return true
	default:
		return false
	}
}
