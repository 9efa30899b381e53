package hikvision

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/textproto"
)

type faceDataRecord struct {
	FaceLibType string `json:"faceLibType"`
	FDID        string `json:"FDID"`
	FPID        string `json:"FPID"`
}

// UploadFace pushes a face image for a previously added person. The
// controller rejects orphan images, so callers must only invoke this after
// AddPerson succeeded for the same employeeNo.
func (s *DeviceSession) UploadFace(ctx context.Context, fdid, employeeNo string, jpeg []byte) (*Result, error) {
	record, err := json.Marshal(faceDataRecord{
		FaceLibType: "blackFD",
		FDID:        fdid,
		FPID:        employeeNo,
	})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	jsonHeader := textproto.MIMEHeader{}
	jsonHeader.Set("Content-Disposition", `form-data; name="FaceDataRecord"`)
	jsonHeader.Set("Content-Type", "application/json")
	part, err := w.CreatePart(jsonHeader)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(record); err != nil {
		return nil, err
	}

	imgHeader := textproto.MIMEHeader{}
	imgHeader.Set("Content-Disposition", `form-data; name="img"; filename="face.jpg"`)
	imgHeader.Set("Content-Type", "image/jpeg")
	part, err = w.CreatePart(imgHeader)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(jpeg); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return s.Do(ctx, "PUT", "/ISAPI/Intelligent/FDLib/FDSetUp?format=json", w.FormDataContentType(), buf.Bytes())
}
