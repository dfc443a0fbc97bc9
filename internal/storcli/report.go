package storcli

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Mode string

const (
	ModeDiscoverController Mode = "discover-controller"
	ModeDiscoverPD         Mode = "discover-pd"
	ModeDiscoverVD         Mode = "discover-vd"
	ModeInfo               Mode = "get-info"
)

type discovery struct {
	Data []map[string]any `json:"data"`
}

type stateEntry struct {
	State Value `json:"state"`
}

type controllerEntry struct {
	Firmware    Value `json:"firmware"`
	Status      Value `json:"status"`
	Temperature Value `json:"temperature"`
}

type info struct {
	Ctrl map[string]controllerEntry `json:"ctrl"`
	PD   map[string]stateEntry      `json:"pd"`
	VD   map[string]stateEntry      `json:"vd"`
}

func DiscoverControllers(doc Document) any {
	items := make([]map[string]any, 0, len(doc.Controllers))
	for _, ctrl := range doc.Controllers {
		basics := ctrl.ResponseData.Basics
		items = append(items, map[string]any{
			"{#CTRL}":   basics.Controller,
			"{#MODEL}":  basics.Model,
			"{#SERIAL}": basics.SerialNumber,
		})
	}
	return discovery{Data: items}
}

func DiscoverPhysicalDrives(doc Document) any {
	items := make([]map[string]any, 0)
	for _, ctrl := range doc.Controllers {
		data := ctrl.ResponseData
		for _, pd := range data.PhysicalDrives {
			items = append(items, map[string]any{
				"{#PD}":   driveID(data, pd.Slot),
				"{#NAME}": fmt.Sprintf("%s %s [%s]", pd.Size, pd.Medium, pd.Model),
			})
		}
	}
	return discovery{Data: items}
}

func DiscoverVirtualDrives(doc Document) any {
	items := make([]map[string]any, 0)
	for _, ctrl := range doc.Controllers {
		data := ctrl.ResponseData
		for _, vd := range data.VirtualDrives {
			items = append(items, map[string]any{
				"{#VD}":   driveID(data, vd.ID),
				"{#NAME}": fmt.Sprintf("%s %s [%s]", vd.Size, vd.Type, vd.Name),
			})
		}
	}
	return discovery{Data: items}
}

// Info collects health values keyed by controller and drive id.
func Info(doc Document) any {
	out := info{
		Ctrl: map[string]controllerEntry{},
		PD:   map[string]stateEntry{},
		VD:   map[string]stateEntry{},
	}
	for _, ctrl := range doc.Controllers {
		data := ctrl.ResponseData
		out.Ctrl[data.Basics.Controller.String()] = controllerEntry{
			Firmware:    data.Version.Firmware,
			Status:      data.Status.Controller,
			Temperature: data.HwCfg.Temperature,
		}
		for _, pd := range data.PhysicalDrives {
			out.PD[driveID(data, pd.Slot)] = stateEntry{State: pd.State}
		}
		for _, vd := range data.VirtualDrives {
			out.VD[driveID(data, vd.ID)] = stateEntry{State: vd.State}
		}
	}
	return out
}

func driveID(data ResponseData, local Value) string {
	return data.Basics.Controller.String() + "/" + local.String()
}

// Render builds the document for mode, indented with four spaces.
func Render(doc Document, mode Mode) ([]byte, error) {
	var payload any
	switch mode {
	case ModeDiscoverController:
		payload = DiscoverControllers(doc)
	case ModeDiscoverPD:
		payload = DiscoverPhysicalDrives(doc)
	case ModeDiscoverVD:
		payload = DiscoverVirtualDrives(doc)
	case ModeInfo:
		payload = Info(doc)
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(payload); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
