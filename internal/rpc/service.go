// Package rpc exposes the chat pipeline over gRPC and provides a client for it.
package rpc

import (
	"context"
	"fmt"

	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/orchestrator"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName is the fully-qualified gRPC service name.
	ServiceName = "nowgo.chat.v1.ChatService"
	// InteractiveMethod is the full method path of the unary chat call.
	InteractiveMethod = "/" + ServiceName + "/Interactive"
)

// ChatServer is the server API of ChatService.
type ChatServer interface {
	Interactive(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// ChatServiceDesc describes ChatService. Messages are google.protobuf.Struct
// values carrying the same fields as the HTTP chat endpoint.
var ChatServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChatServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Interactive", Handler: interactiveHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nowgo/chat/v1/chat.proto",
}

func interactiveHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChatServer).Interactive(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: InteractiveMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ChatServer).Interactive(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// InteractiveReply is the decoded response of the Interactive call.
type InteractiveReply struct {
	UserPrompt        string
	AssistantResponse string
	PersonaUsed       string
	ExchangeID        string
}

// RequestToStruct encodes a chat request.
func RequestToStruct(req orchestrator.Request) (*structpb.Struct, error) {
	fields := map[string]any{
		"user_id":    req.UserID,
		"company_id": req.CompanyID,
		"prompt":     req.Prompt,
	}
	if req.ModuleAccessed != "" {
		fields["module_accessed"] = req.ModuleAccessed
	}
	if len(req.CurrentInteractionData) > 0 {
		fields["current_interaction_data"] = req.CurrentInteractionData
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}
	return s, nil
}

// RequestFromStruct decodes a chat request. Missing or non-string fields read as empty.
func RequestFromStruct(s *structpb.Struct) orchestrator.Request {
	f := s.GetFields()
	req := orchestrator.Request{
		UserID:         f["user_id"].GetStringValue(),
		CompanyID:      f["company_id"].GetStringValue(),
		Prompt:         f["prompt"].GetStringValue(),
		ModuleAccessed: f["module_accessed"].GetStringValue(),
		Channel:        "grpc",
	}
	if data := f["current_interaction_data"].GetStructValue(); data != nil {
		req.CurrentInteractionData = data.AsMap()
	}
	return req
}

// ReplyToStruct encodes the response of an Interactive call.
func ReplyToStruct(prompt string, reply orchestrator.Reply) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(map[string]any{
		"user_prompt":        prompt,
		"assistant_response": reply.Text,
		"persona_used":       reply.Persona.DisplayName,
		"exchange_id":        reply.ExchangeID,
	})
	if err != nil {
		return nil, fmt.Errorf("encode chat reply: %w", err)
	}
	return s, nil
}

// ReplyFromStruct decodes the response of an Interactive call.
func ReplyFromStruct(s *structpb.Struct) InteractiveReply {
	f := s.GetFields()
	return InteractiveReply{
		UserPrompt:        f["user_prompt"].GetStringValue(),
		AssistantResponse: f["assistant_response"].GetStringValue(),
		PersonaUsed:       f["persona_used"].GetStringValue(),
		ExchangeID:        f["exchange_id"].GetStringValue(),
	}
}
